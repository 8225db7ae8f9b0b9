package models

import "time"

// UserKYC is a document submission; the latest row per user decides the KYC state.
type UserKYC struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	DocumentType   string     `gorm:"size:50;not null" json:"document_type"`
	DocumentNumber string     `gorm:"size:50;not null" json:"document_number"`
	DocumentURL    string     `gorm:"size:512;not null" json:"document_url"`
	Status         string     `gorm:"size:20;default:'pending';index" json:"status"` // pending, verified, rejected
	ReviewedBy     *uint      `gorm:"index" json:"reviewed_by"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	Notes          string     `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (UserKYC) TableName() string { return "user_kyc" }
