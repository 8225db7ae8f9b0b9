package models

import "time"

type Contact struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:120;not null" json:"name"`
	Email      string     `gorm:"size:255;not null" json:"email"`
	Phone      string     `gorm:"size:20" json:"phone"`
	Subject    string     `gorm:"size:200" json:"subject"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Contact) TableName() string { return "contacts" }
