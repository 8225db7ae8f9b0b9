package repository

import (
	"errors"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrBelowBookedBeds = errors.New("total beds cannot be lower than beds already booked")

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(room *models.RoomConfiguration) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		room.AvailableBeds = room.TotalBeds()
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return recomputeStartingRent(tx, room.ListingID)
	})
}

func (r *RoomRepository) GetByID(id uint) (*models.RoomConfiguration, error) {
	var room models.RoomConfiguration
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) ListByListing(listingID uint) ([]models.RoomConfiguration, error) {
	var list []models.RoomConfiguration
	err := r.db.Where("listing_id = ?", listingID).Order("rent_paise ASC").Find(&list).Error
	return list, err
}

// RoomUpdate is one row of an owner's availability edit. Nil fields are left untouched.
type RoomUpdate struct {
	ID          uint
	RoomType    *string
	BedsPerRoom *int
	TotalRooms  *int
	RentPaise   *int64
	// DepositType "" clears the override; DepositValue is then reset to 0.
	DepositType  *string
	DepositValue *int64
}

// Apply copies the set fields onto room and reports whether anything changed.
func (u RoomUpdate) Apply(room *models.RoomConfiguration) bool {
	changed := false
	if u.RoomType != nil && *u.RoomType != room.RoomType {
		room.RoomType = *u.RoomType
		changed = true
	}
	if u.BedsPerRoom != nil && *u.BedsPerRoom != room.BedsPerRoom {
		room.BedsPerRoom = *u.BedsPerRoom
		changed = true
	}
	if u.TotalRooms != nil && *u.TotalRooms != room.TotalRooms {
		room.TotalRooms = *u.TotalRooms
		changed = true
	}
	if u.RentPaise != nil && *u.RentPaise != room.RentPaise {
		room.RentPaise = *u.RentPaise
		changed = true
	}
	if u.DepositType != nil && *u.DepositType != room.DepositType {
		room.DepositType = *u.DepositType
		changed = true
	}
	if u.DepositValue != nil && *u.DepositValue != room.DepositValue {
		room.DepositValue = *u.DepositValue
		changed = true
	}
	if room.DepositType == "" && room.DepositValue != 0 {
		room.DepositValue = 0
		changed = true
	}
	return changed
}

// SetAvailability stores total - booked beds on room, refusing a total below booked.
func SetAvailability(room *models.RoomConfiguration, booked int) error {
	if room.TotalBeds() < booked {
		return ErrBelowBookedBeds
	}
	room.AvailableBeds = domain.AvailableBeds(room.TotalBeds(), booked)
	return nil
}

// BulkUpdate applies owner edits to a listing's rooms in one transaction. Rows whose
// values did not change are skipped. A row whose new bed total is below the beds held by
// current bookings aborts the whole edit with ErrBelowBookedBeds.
func (r *RoomRepository) BulkUpdate(listingID uint, updates []RoomUpdate) ([]models.RoomConfiguration, error) {
	asOf := today()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var room models.RoomConfiguration
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND listing_id = ?", u.ID, listingID).
				First(&room).Error
			if err != nil {
				return err
			}
			if !u.Apply(&room) {
				continue
			}
			booked, err := countBookedBeds(tx, room.ID, asOf, time.Time{})
			if err != nil {
				return err
			}
			if err := SetAvailability(&room, booked); err != nil {
				return err
			}
			if err := tx.Save(&room).Error; err != nil {
				return err
			}
		}
		return recomputeStartingRent(tx, listingID)
	})
	if err != nil {
		return nil, err
	}
	return r.ListByListing(listingID)
}

// RefreshAvailability recomputes available_beds for one room from current bookings.
func (r *RoomRepository) RefreshAvailability(roomID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var room models.RoomConfiguration
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			return err
		}
		return refreshAvailableBeds(tx, &room, today())
	})
}

// BookedBeds counts beds held by occupying bookings overlapping [from, to).
// A zero to means open ended.
func (r *RoomRepository) BookedBeds(roomID uint, from, to time.Time) (int, error) {
	return countBookedBeds(r.db, roomID, from, to)
}

// countBookedBeds is the SQL form of domain.HoldsBed.
func countBookedBeds(tx *gorm.DB, roomID uint, from, to time.Time) (int, error) {
	q := tx.Model(&models.Booking{}).
		Where("room_configuration_id = ?", roomID).
		Where("status IN ?", domain.OccupyingBookingStatuses).
		Where("end_date > ?", from)
	if !to.IsZero() {
		q = q.Where("start_date < ?", to)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// refreshAvailableBeds stores total - booked beds for stays that have not ended by asOf.
func refreshAvailableBeds(tx *gorm.DB, room *models.RoomConfiguration, asOf time.Time) error {
	booked, err := countBookedBeds(tx, room.ID, asOf, time.Time{})
	if err != nil {
		return err
	}
	room.AvailableBeds = domain.AvailableBeds(room.TotalBeds(), booked)
	return tx.Model(&models.RoomConfiguration{}).
		Where("id = ?", room.ID).
		UpdateColumn("available_beds", room.AvailableBeds).Error
}

func recomputeStartingRent(tx *gorm.DB, listingID uint) error {
	var row struct{ Min int64 }
	err := tx.Model(&models.RoomConfiguration{}).
		Select("COALESCE(MIN(rent_paise), 0) AS min").
		Where("listing_id = ?", listingID).
		Scan(&row).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Listing{}).
		Where("id = ?", listingID).
		UpdateColumn("starting_rent_paise", row.Min).Error
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
