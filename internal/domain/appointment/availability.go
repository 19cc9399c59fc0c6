package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AvailabilityInput struct {
	AgentID    uuid.UUID
	PropertyID uuid.UUID
	Date       time.Time
}

// TimeSlot is a visit start time that fits the agent's schedule, with the
// window it would occupy.
type TimeSlot struct {
	StartsAt           time.Time `json:"starts_at"`
	DepartureTime      time.Time `json:"departure_time"`
	AvailableAgainTime time.Time `json:"available_again_time"`
}
