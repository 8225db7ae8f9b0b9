package repository

import (
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. A second review by the same user on a listing fails with
// gorm.ErrDuplicatedKey or the driver's duplicate entry error.
func (r *ReviewRepository) Create(rv *models.Review) error {
	return r.db.Create(rv).Error
}

func (r *ReviewRepository) Exists(userID, listingID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.Review{}).Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&n).Error
	return n > 0, err
}

func (r *ReviewRepository) GetByID(id uint) (*models.Review, error) {
	var rv models.Review
	if err := r.db.First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

// Delete hard-deletes so the user may review the listing again.
func (r *ReviewRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Review{}, id).Error
}

func (r *ReviewRepository) ListByListing(listingID uint, limit, offset int) ([]models.Review, error) {
	var list []models.Review
	err := r.db.Where("listing_id = ?", listingID).Preload("User").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// RatingBreakdown returns the number of reviews per star value.
func (r *ReviewRepository) RatingBreakdown(listingID uint) (map[int]int64, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	err := r.db.Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("listing_id = ?", listingID).
		Group("rating").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		out[row.Rating] = row.Count
	}
	return out, nil
}
