package repository

import (
	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Create(v *models.VisitBooking) error {
	return r.db.Create(v).Error
}

func (r *VisitRepository) GetByID(id uint) (*models.VisitBooking, error) {
	var v models.VisitBooking
	if err := r.db.Preload("User").Preload("Listing").First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// SetStatus updates the status only if it is still from.
func (r *VisitRepository) SetStatus(id uint, from, to string) (bool, error) {
	res := r.db.Model(&models.VisitBooking{}).Where("id = ? AND status = ?", id, from).Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (r *VisitRepository) ListByUser(userID uint, limit, offset int) ([]models.VisitBooking, error) {
	var list []models.VisitBooking
	err := r.db.Where("user_id = ?", userID).Preload("Listing").
		Order("visit_date DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *VisitRepository) ListByOwner(ownerID uint, status string, limit, offset int) ([]models.VisitBooking, int64, error) {
	q := r.db.Model(&models.VisitBooking{}).
		Joins("JOIN listings ON listings.id = visit_bookings.listing_id").
		Where("listings.owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("visit_bookings.status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.VisitBooking
	err := q.Preload("User").Preload("Listing").
		Order("visit_bookings.visit_date ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *VisitRepository) List(status string, limit, offset int) ([]models.VisitBooking, int64, error) {
	q := r.db.Model(&models.VisitBooking{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.VisitBooking
	err := q.Preload("User").Preload("Listing").Order("visit_date DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// CountPending counts pending visits, optionally for one owner's listings.
func (r *VisitRepository) CountPending(ownerID uint) (int64, error) {
	q := r.db.Model(&models.VisitBooking{}).Where("visit_bookings.status = ?", domain.VisitStatusPending)
	if ownerID != 0 {
		q = q.Joins("JOIN listings ON listings.id = visit_bookings.listing_id").Where("listings.owner_id = ?", ownerID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
