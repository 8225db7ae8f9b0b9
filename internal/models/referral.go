package models

import (
	"time"

	"gorm.io/gorm"
)

// Referral tracks the relationship between a referrer and a referred user.
// A user can only be referred once. The reward is credited on the referred user's
// first confirmed booking.
type Referral struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ReferrerID     uint           `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID uint           `gorm:"uniqueIndex;not null" json:"referred_user_id"`
	Status         string         `gorm:"size:20;not null;index;default:'pending'" json:"status"` // pending, credited
	RewardPaise    int64          `gorm:"not null;default:0" json:"reward_paise"`
	BookingID      *uint          `json:"booking_id"` // booking that triggered the credit
	CreditedAt     *time.Time     `json:"credited_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Referrer     User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUser User `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
