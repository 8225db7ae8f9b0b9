package models

import (
	"time"

	"gorm.io/gorm"
)

type Booking struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	UserID              uint           `gorm:"not null;index" json:"user_id"`
	ListingID           uint           `gorm:"not null;index" json:"listing_id"`
	RoomConfigurationID uint           `gorm:"not null;index" json:"room_configuration_id"`
	StartDate           time.Time      `gorm:"type:date;not null;index" json:"start_date"`
	EndDate             time.Time      `gorm:"type:date;not null;index" json:"end_date"` // exclusive
	DurationMonths      int            `gorm:"not null" json:"duration_months"`
	MonthlyRentPaise    int64          `gorm:"not null" json:"monthly_rent_paise"`
	RentTotalPaise      int64          `gorm:"not null" json:"rent_total_paise"`
	DepositPaise        int64          `gorm:"not null;default:0" json:"deposit_paise"`
	GSTPaise            int64          `gorm:"not null;default:0" json:"gst_paise"`
	TotalAmountPaise    int64          `gorm:"not null" json:"total_amount_paise"`
	Status              string         `gorm:"size:20;not null;index;default:'pending'" json:"status"` // pending, confirmed, cancelled, completed
	ConfirmedAt         *time.Time     `json:"confirmed_at"`
	CancelledAt         *time.Time     `json:"cancelled_at"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	User    User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Listing Listing           `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	Room    RoomConfiguration `gorm:"foreignKey:RoomConfigurationID" json:"room,omitempty"`
}

func (Booking) TableName() string { return "bookings" }
