package repository

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode returns an 8-character uppercase hex code.
func GenerateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

func (r *ReferralRepository) Create(ref *models.Referral) error {
	return r.db.Create(ref).Error
}

// GetByReferredUser returns the referral that brought userID in.
func (r *ReferralRepository) GetByReferredUser(userID uint) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.Where("referred_user_id = ?", userID).First(&ref).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// Credit moves a pending referral to credited. It reports false when the referral was
// already credited, so a reward is never paid twice.
func (r *ReferralRepository) Credit(id uint, rewardPaise int64, bookingID uint) (bool, error) {
	now := time.Now()
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, domain.ReferralStatusPending).
		Updates(map[string]interface{}{
			"status":       domain.ReferralStatusCredited,
			"reward_paise": rewardPaise,
			"booking_id":   bookingID,
			"credited_at":  now,
		})
	return res.RowsAffected > 0, res.Error
}

// ListByReferrer returns referrals made by referrerID with the referred user preloaded.
func (r *ReferralRepository) ListByReferrer(referrerID uint, limit, offset int) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.Where("referrer_id = ?", referrerID).
		Preload("ReferredUser").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// EarnedByReferrer sums credited rewards.
func (r *ReferralRepository) EarnedByReferrer(referrerID uint) (int64, error) {
	var row struct{ Total int64 }
	err := r.db.Model(&models.Referral{}).
		Select("COALESCE(SUM(reward_paise), 0) AS total").
		Where("referrer_id = ? AND status = ?", referrerID, domain.ReferralStatusCredited).
		Scan(&row).Error
	return row.Total, err
}

func (r *ReferralRepository) List(status string, limit, offset int) ([]models.Referral, int64, error) {
	q := r.db.Model(&models.Referral{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	q.Count(&total)
	var list []models.Referral
	err := q.Preload("Referrer").Preload("ReferredUser").Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}
