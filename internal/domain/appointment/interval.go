package appointment

import (
	"time"

	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// BusyInterval is the half-open range [Start, End) during which a
// resource is occupied. Windows built by the Calculator are never empty:
// Travel rejects journeys under one minute and the visit duration is at
// least one minute.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether a and b share any instant. Intervals that only
// touch at a boundary do not overlap.
func Overlaps(a, b BusyInterval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func (i BusyInterval) Overlaps(o BusyInterval) bool {
	return Overlaps(i, o)
}

// AgentWindow covers the outbound leg, the visit and the return leg.
func AgentWindow(ap *models.Appointment) BusyInterval {
	return BusyInterval{Start: ap.DepartureTime, End: ap.AvailableAgainTime}
}

// CustomerWindow starts at the visit; the agent's outbound leg does not
// occupy the customer.
func CustomerWindow(ap *models.Appointment) BusyInterval {
	return BusyInterval{Start: ap.StartsAt, End: ap.ReturnTime}
}
