package models

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	AgentID uuid.UUID `gorm:"type:uuid;index;not null" json:"agent_id"`
	Agent   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"agent,omitempty"`

	CustomerID uuid.UUID `gorm:"type:uuid;index;not null" json:"customer_id"`
	Customer   Customer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"customer,omitempty"`

	PropertyID uuid.UUID `gorm:"type:uuid;index;not null" json:"property_id"`
	Property   Property  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"property,omitempty"`

	StartsAt          time.Time `gorm:"not null" json:"starts_at"`
	DistanceKm        float64   `gorm:"type:numeric(10,2)" json:"distance_km"`
	TravelDurationMin int       `gorm:"not null" json:"travel_duration_min"`

	DepartureTime      time.Time `gorm:"not null" json:"departure_time"`
	ReturnTime         time.Time `gorm:"not null" json:"return_time"`
	AvailableAgainTime time.Time `gorm:"not null" json:"available_again_time"`

	Notes  string `gorm:"type:text" json:"notes"`
	Status string `gorm:"size:20;default:'SCHEDULED';index" json:"status"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
