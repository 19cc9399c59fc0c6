package models

import (
	"time"

	"github.com/google/uuid"
)

type Property struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Title     string  `gorm:"size:255;not null" json:"title"`
	Postcode  string  `gorm:"size:10;not null" json:"postcode"`
	Parish    string  `gorm:"size:100" json:"parish"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	PhotoKey  string  `gorm:"size:255" json:"photo_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
