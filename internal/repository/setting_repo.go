package repository

import (
	"log"
	"strconv"

	"pgnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

// GetString returns the stored value or fallback when the key is missing or empty.
func (r *SettingRepository) GetString(key, fallback string) string {
	v, err := r.Get(key)
	if err != nil || v == "" {
		return fallback
	}
	return v
}

func (r *SettingRepository) GetInt64(key string, fallback int64) int64 {
	v, err := r.Get(key)
	if err != nil {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("[settings] %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func (r *SettingRepository) GetFloat(key string, fallback float64) float64 {
	v, err := r.Get(key)
	if err != nil {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[settings] %s=%q is not a number, using %v", key, v, fallback)
		return fallback
	}
	return f
}

// Set upserts one value and records the admin who changed it. by is 0 for system writes.
func (r *SettingRepository) Set(key, value string, by uint) error {
	row := models.SystemSetting{Key: key, Value: value}
	if by != 0 {
		row.UpdatedBy = &by
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&row).Error
}

func (r *SettingRepository) GetAll() ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	err := r.db.Order("`key` ASC").Find(&list).Error
	return list, err
}

// SeedDefaults inserts the keys that have never been stored and leaves edited values alone.
func (r *SettingRepository) SeedDefaults(defaults map[string]string) error {
	rows := make([]models.SystemSetting, 0, len(defaults))
	for k, v := range defaults {
		rows = append(rows, models.SystemSetting{Key: k, Value: v})
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
