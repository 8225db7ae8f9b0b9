package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VisitBooking struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	ListingID uint           `gorm:"not null;index" json:"listing_id"`
	VisitDate datatypes.Date `gorm:"not null;index" json:"visit_date"`
	VisitTime string         `gorm:"size:5;not null" json:"visit_time"` // HH:MM
	Message   string         `gorm:"type:text" json:"message"`
	Status    string         `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Listing Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

func (VisitBooking) TableName() string { return "visit_bookings" }
