package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer has no login; it is found or created by email when a viewing
// is booked.
type Customer struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"size:20" json:"phone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
