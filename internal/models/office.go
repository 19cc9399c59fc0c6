package models

import (
	"time"

	"github.com/google/uuid"
)

// Office is the origin of every agent journey.
type Office struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name      string  `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Postcode  string  `gorm:"size:10;not null" json:"postcode"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
