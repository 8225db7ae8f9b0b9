package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Listing is a PG property. Status is toggled, never hard-deleted.
type Listing struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	OwnerID             uint           `gorm:"not null;index" json:"owner_id"`
	Title               string         `gorm:"size:200;not null" json:"title"`
	Description         string         `gorm:"type:text" json:"description"`
	Address             string         `gorm:"size:500" json:"address"`
	City                string         `gorm:"size:100;index" json:"city"`
	State               string         `gorm:"size:100" json:"state"`
	Pincode             string         `gorm:"size:10" json:"pincode"`
	Latitude            *float64       `json:"latitude"`
	Longitude           *float64       `json:"longitude"`
	Gender              string         `gorm:"size:20;index;default:'unisex'" json:"gender"` // male | female | unisex
	Food                string         `gorm:"size:20;index;default:'none'" json:"food"`     // veg | non_veg | both | none
	Amenities           datatypes.JSON `json:"amenities"`                                    // ["wifi","ac",...]
	Rules               datatypes.JSON `json:"rules"`
	Status              string         `gorm:"size:20;not null;index;default:'active'" json:"status"`
	StartingRentPaise   int64          `gorm:"not null;default:0;index" json:"starting_rent_paise"` // min rent across rooms
	DepositType         string         `gorm:"size:20" json:"deposit_type"`                        // overrides the system setting when set
	DepositValue        int64          `gorm:"default:0" json:"deposit_value"`
	AvgRating           float64        `gorm:"default:0;index" json:"avg_rating"`
	ReviewCount         int            `gorm:"default:0" json:"review_count"`
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	Owner  User                `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Images []ListingImage      `gorm:"foreignKey:ListingID" json:"images,omitempty"`
	Rooms  []RoomConfiguration `gorm:"foreignKey:ListingID" json:"rooms,omitempty"`
}

func (Listing) TableName() string { return "listings" }

type ListingImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ListingID    uint      `gorm:"not null;index" json:"listing_id"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	ThumbnailURL string    `gorm:"size:512" json:"thumbnail_url"`
	SortOrder    int       `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ListingImage) TableName() string { return "listing_images" }
