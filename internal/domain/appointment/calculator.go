package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// Calculation holds every window field derived for one appointment.
type Calculation struct {
	StartsAt           time.Time
	DistanceKm         float64
	TravelDurationMin  int
	DepartureTime      time.Time
	ReturnTime         time.Time
	AvailableAgainTime time.Time
}

func (c Calculation) AgentWindow() BusyInterval {
	return BusyInterval{Start: c.DepartureTime, End: c.AvailableAgainTime}
}

func (c Calculation) CustomerWindow() BusyInterval {
	return BusyInterval{Start: c.StartsAt, End: c.ReturnTime}
}

// Apply copies the derived fields onto ap.
func (c Calculation) Apply(ap *models.Appointment) {
	ap.StartsAt = c.StartsAt
	ap.DistanceKm = c.DistanceKm
	ap.TravelDurationMin = c.TravelDurationMin
	ap.DepartureTime = c.DepartureTime
	ap.ReturnTime = c.ReturnTime
	ap.AvailableAgainTime = c.AvailableAgainTime
}

type Calculator struct {
	travel geo.TravelEstimator
	visit  time.Duration
}

// NewCalculator panics on a visit shorter than one minute, which would let
// a window collapse to nothing.
func NewCalculator(travel geo.TravelEstimator, visit time.Duration) *Calculator {
	if visit < time.Minute {
		panic("appointment: visit duration must be at least one minute")
	}
	return &Calculator{travel: travel, visit: visit}
}

func (c *Calculator) VisitDuration() time.Duration {
	return c.visit
}

// Calculate looks up the office to property journey and derives the
// appointment's busy windows. Any lookup failure is a DependencyError.
func (c *Calculator) Calculate(
	ctx context.Context,
	office *models.Office,
	property *models.Property,
	startsAt time.Time,
) (Calculation, error) {

	travel, err := c.Travel(ctx, office, property)
	if err != nil {
		return Calculation{}, err
	}
	return c.Derive(travel, startsAt), nil
}

func (c *Calculator) Travel(ctx context.Context, office *models.Office, property *models.Property) (geo.Travel, error) {
	travel, err := c.travel.ComputeTravel(ctx,
		geo.Coordinates{Latitude: office.Latitude, Longitude: office.Longitude},
		geo.Coordinates{Latitude: property.Latitude, Longitude: property.Longitude},
	)
	if err != nil {
		if httperr.Is(err, httperr.KindDependency) {
			return geo.Travel{}, err
		}
		return geo.Travel{}, httperr.Dependency("travel_lookup_failed", "Could not compute travel time.", err)
	}

	if travel.DurationMin < 1 || travel.DistanceKm < 0 {
		return geo.Travel{}, httperr.Dependency("geo_malformed", "Travel estimate is unusable.", nil)
	}
	return travel, nil
}

// Derive computes the window fields for a known journey:
//
//	departure = start - travel
//	return    = start + visit + travel
//	available = return
func (c *Calculator) Derive(travel geo.Travel, startsAt time.Time) Calculation {
	leg := time.Duration(travel.DurationMin) * time.Minute
	visitEnd := startsAt.Add(c.visit)
	returnTime := visitEnd.Add(leg)

	return Calculation{
		StartsAt:           startsAt,
		DistanceKm:         travel.DistanceKm,
		TravelDurationMin:  travel.DurationMin,
		DepartureTime:      startsAt.Add(-leg),
		ReturnTime:         returnTime,
		AvailableAgainTime: returnTime,
	}
}
