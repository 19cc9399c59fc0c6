package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "ADMIN"
	RoleAgent = "AGENT"

	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
)

// User is a staff account. Agents are the users appointments are booked for.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FirstName    string `gorm:"size:100;not null" json:"first_name"`
	LastName     string `gorm:"size:100;not null" json:"last_name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'AGENT'" json:"role"`
	Status       string `gorm:"size:20;default:'ACTIVE'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
