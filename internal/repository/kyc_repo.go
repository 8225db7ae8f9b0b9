package repository

import (
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type KYCRepository struct {
	db *gorm.DB
}

func NewKYCRepository(db *gorm.DB) *KYCRepository {
	return &KYCRepository{db: db}
}

func (r *KYCRepository) Create(k *models.UserKYC) error {
	return r.db.Create(k).Error
}

// Latest returns the most recent submission of a user.
func (r *KYCRepository) Latest(userID uint) (*models.UserKYC, error) {
	var k models.UserKYC
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&k).Error
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *KYCRepository) GetByID(id uint) (*models.UserKYC, error) {
	var k models.UserKYC
	if err := r.db.Preload("User").First(&k, id).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

// Review records a decision on a pending submission. It reports false when the
// submission was already reviewed.
func (r *KYCRepository) Review(id, reviewerID uint, status, notes string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.UserKYC{}).
		Where("id = ? AND status = ?", id, domain.KYCStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"notes":       notes,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *KYCRepository) List(status string, limit, offset int) ([]models.UserKYC, int64, error) {
	q := r.db.Model(&models.UserKYC{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.UserKYC
	err := q.Preload("User").Order("created_at ASC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *KYCRepository) CountPending() (int64, error) {
	var n int64
	err := r.db.Model(&models.UserKYC{}).Where("status = ?", domain.KYCStatusPending).Count(&n).Error
	return n, err
}
