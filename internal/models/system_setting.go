package models

import "time"

// SystemSetting is one admin-tunable platform value such as the GST rate, the
// default security deposit or the referral reward. Keys are fixed by
// domain.DefaultSettings and values are stored as text and parsed on read.
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedBy *uint     `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string { return "system_settings" }
