package models

import (
	"time"

	"pgnest/internal/domain"

	"gorm.io/gorm"
)

// RoomConfiguration is one room type of a listing. Inventory is counted in beds:
// AvailableBeds = TotalBeds() - booked beds, recomputed on every owner edit and booking transaction.
type RoomConfiguration struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ListingID     uint           `gorm:"not null;index" json:"listing_id"`
	RoomType      string         `gorm:"size:50;not null" json:"room_type"` // single, double, triple sharing...
	BedsPerRoom   int            `gorm:"not null;default:1" json:"beds_per_room"`
	TotalRooms    int            `gorm:"not null;default:0" json:"total_rooms"`
	AvailableBeds int            `gorm:"not null;default:0" json:"available_beds"`
	RentPaise     int64          `gorm:"not null" json:"rent_paise"` // per bed per month
	DepositType   string         `gorm:"size:20" json:"deposit_type,omitempty"` // overrides the listing's terms when set
	DepositValue  int64          `gorm:"default:0" json:"deposit_value,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RoomConfiguration) TableName() string { return "room_configurations" }

func (r *RoomConfiguration) TotalBeds() int {
	return domain.TotalBeds(r.TotalRooms, r.BedsPerRoom)
}
