package models

import (
	"time"

	"gorm.io/datatypes"
)

// Invoice is an immutable snapshot generated once per booking after payment success.
type Invoice struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	InvoiceNumber string         `gorm:"uniqueIndex;size:40" json:"invoice_number"`
	BookingID     uint           `gorm:"uniqueIndex;not null" json:"booking_id"`
	PaymentID     uint           `gorm:"not null;index" json:"payment_id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	ListingID     uint           `gorm:"not null;index" json:"listing_id"`
	SubtotalPaise int64          `gorm:"not null" json:"subtotal_paise"`
	TaxPaise      int64          `gorm:"not null;default:0" json:"tax_paise"`
	TotalPaise    int64          `gorm:"not null" json:"total_paise"`
	Snapshot      datatypes.JSON `json:"snapshot"`
	IssuedAt      time.Time      `json:"issued_at"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (Invoice) TableName() string { return "invoices" }
