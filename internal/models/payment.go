package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is a booking-scoped gateway order. Status: initiated, success, failed.
type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	BookingID         uint           `gorm:"not null;index" json:"booking_id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	AmountPaise       int64          `gorm:"not null" json:"amount_paise"`
	Currency          string         `gorm:"size:3;default:'INR'" json:"currency"`
	Provider          string         `gorm:"size:50;not null" json:"provider"`
	Receipt           string         `gorm:"size:64;uniqueIndex" json:"receipt"`
	ProviderOrderID   string         `gorm:"size:255;uniqueIndex" json:"provider_order_id"`
	ProviderPaymentID *string        `gorm:"size:255;uniqueIndex" json:"provider_payment_id"`
	Signature         string         `gorm:"size:255" json:"-"`
	Status            string         `gorm:"size:20;not null;index" json:"status"`
	FailureReason     string         `gorm:"size:255" json:"failure_reason,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Booking Booking `gorm:"foreignKey:BookingID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
