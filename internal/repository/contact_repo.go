package repository

import (
	"pgnest/internal/models"

	"gorm.io/gorm"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(c *models.Contact) error {
	return r.db.Create(c).Error
}

func (r *ContactRepository) List(unresolvedOnly bool, limit, offset int) ([]models.Contact, int64, error) {
	q := r.db.Model(&models.Contact{})
	if unresolvedOnly {
		q = q.Where("resolved_at IS NULL")
	}
	var total int64
	q.Count(&total)
	var list []models.Contact
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *ContactRepository) Resolve(id uint) error {
	return r.db.Model(&models.Contact{}).Where("id = ?", id).Update("resolved_at", gorm.Expr("NOW()")).Error
}
