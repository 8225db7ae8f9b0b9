package repository

import (
	"context"
	"errors"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidTransition = errors.New("booking status transition not allowed")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ReserveBed inserts b while holding a row lock on its room. check receives the locked
// room and the beds already held over [b.StartDate, b.EndDate) and may veto the insert.
// available_beds is recomputed before the lock is released.
func (r *BookingRepository) ReserveBed(ctx context.Context, b *models.Booking, check func(room *models.RoomConfiguration, bookedBeds int) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.RoomConfiguration
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND listing_id = ?", b.RoomConfigurationID, b.ListingID).
			First(&room).Error
		if err != nil {
			return err
		}
		booked, err := countBookedBeds(tx, room.ID, b.StartDate, b.EndDate)
		if err != nil {
			return err
		}
		if err := check(&room, booked); err != nil {
			return err
		}
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		return refreshAvailableBeds(tx, &room, today())
	})
}

// Transition moves a booking from one status to another and frees or recounts beds.
// The update is conditional on the current status so concurrent changes cannot both win.
func (r *BookingRepository) Transition(ctx context.Context, id uint, from, to string) error {
	if !domain.CanTransitionBooking(from, to) {
		return ErrInvalidTransition
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.First(&b, id).Error; err != nil {
			return err
		}
		var room models.RoomConfiguration
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, b.RoomConfigurationID).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{"status": to}
		now := time.Now()
		switch to {
		case domain.BookingStatusCancelled:
			updates["cancelled_at"] = now
		case domain.BookingStatusConfirmed:
			updates["confirmed_at"] = now
		}
		res := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", id, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return refreshAvailableBeds(tx, &room, today())
	})
}

func (r *BookingRepository) GetByID(id uint) (*models.Booking, error) {
	var b models.Booking
	err := r.db.Preload("Listing").Preload("Room").Preload("User").First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) ListByUser(userID uint, status string, limit, offset int) ([]models.Booking, int64, error) {
	q := r.db.Model(&models.Booking{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Booking
	err := q.Preload("Listing").Preload("Room").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListByOwner returns bookings on listings owned by ownerID.
func (r *BookingRepository) ListByOwner(ownerID uint, status string, limit, offset int) ([]models.Booking, int64, error) {
	q := r.db.Model(&models.Booking{}).
		Joins("JOIN listings ON listings.id = bookings.listing_id").
		Where("listings.owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("bookings.status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Booking
	err := q.Preload("Listing").Preload("Room").Preload("User").
		Order("bookings.created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *BookingRepository) List(status string, limit, offset int) ([]models.Booking, int64, error) {
	q := r.db.Model(&models.Booking{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Booking
	err := q.Preload("Listing").Preload("User").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// CountConfirmedExcept counts a user's bookings, other than exceptID, that were ever
// confirmed. Later cancellation or deletion does not remove them from the count.
func (r *BookingRepository) CountConfirmedExcept(userID, exceptID uint) (int64, error) {
	var n int64
	err := r.db.Unscoped().Model(&models.Booking{}).
		Where("user_id = ? AND id <> ? AND confirmed_at IS NOT NULL", userID, exceptID).
		Count(&n).Error
	return n, err
}

// CountByStatus groups bookings by status, optionally restricted to one owner's listings.
func (r *BookingRepository) CountByStatus(ownerID uint) (map[string]int64, error) {
	q := r.db.Model(&models.Booking{})
	if ownerID != 0 {
		q = q.Joins("JOIN listings ON listings.id = bookings.listing_id").Where("listings.owner_id = ?", ownerID)
	}
	var rows []struct {
		Status string
		Count  int64
	}
	if err := q.Select("bookings.status AS status, COUNT(*) AS count").Group("bookings.status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
