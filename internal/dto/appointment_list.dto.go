package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID                 uuid.UUID `json:"id"`
	StartsAt           time.Time `json:"starts_at"`
	DepartureTime      time.Time `json:"departure_time"`
	ReturnTime         time.Time `json:"return_time"`
	AvailableAgainTime time.Time `json:"available_again_time"`
	DistanceKm         float64   `json:"distance_km"`
	TravelDurationMin  int       `json:"travel_duration_min"`
	Status             string    `json:"status"`
	Notes              string    `json:"notes"`
	CustomerName       string    `json:"customer_name"`
	CustomerEmail      string    `json:"customer_email"`
	PropertyID         uuid.UUID `json:"property_id"`
	PropertyTitle      string    `json:"property_title"`
	PropertyPostcode   string    `json:"property_postcode"`
	AgentID            uuid.UUID `json:"agent_id"`
	AgentName          string    `json:"agent_name,omitempty"`
}

func AppointmentList(aps []models.Appointment) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AppointmentListDTO{
			ID:                 ap.ID,
			StartsAt:           ap.StartsAt,
			DepartureTime:      ap.DepartureTime,
			ReturnTime:         ap.ReturnTime,
			AvailableAgainTime: ap.AvailableAgainTime,
			DistanceKm:         ap.DistanceKm,
			TravelDurationMin:  ap.TravelDurationMin,
			Status:             ap.Status,
			Notes:              ap.Notes,
			CustomerName:       ap.Customer.FirstName + " " + ap.Customer.LastName,
			CustomerEmail:      ap.Customer.Email,
			PropertyID:         ap.PropertyID,
			PropertyTitle:      ap.Property.Title,
			PropertyPostcode:   ap.Property.Postcode,
			AgentID:            ap.AgentID,
			AgentName:          strings.TrimSpace(ap.Agent.FirstName + " " + ap.Agent.LastName),
		})
	}
	return out
}
