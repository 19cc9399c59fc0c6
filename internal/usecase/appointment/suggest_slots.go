package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/timezone"
)

// SlotWindow bounds the visit start times offered on a day, as "HH:MM"
// clock times in the day's location.
type SlotWindow struct {
	DayStart string
	DayEnd   string
	Step     time.Duration
}

type SuggestSlots struct {
	uow     domain.UnitOfWork
	offices domain.OfficeProvider
	calc    *domain.Calculator
	window  SlotWindow
	now     func() time.Time
}

func NewSuggestSlots(
	uow domain.UnitOfWork,
	offices domain.OfficeProvider,
	calc *domain.Calculator,
	window SlotWindow,
) *SuggestSlots {
	return &SuggestSlots{
		uow:     uow,
		offices: offices,
		calc:    calc,
		window:  window,
		now:     time.Now,
	}
}

// Execute lists the visit start times on in.Date at which the agent could
// view the property without overlapping an existing busy window. The
// journey is looked up once and reused for every candidate.
func (uc *SuggestSlots) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.TimeSlot, error) {

	dayStart, err := timezone.ClockOn(in.Date, uc.window.DayStart)
	if err != nil {
		return nil, httperr.Validation("invalid_day_start", "Slot day start must be HH:MM.", nil)
	}
	dayEnd, err := timezone.ClockOn(in.Date, uc.window.DayEnd)
	if err != nil {
		return nil, httperr.Validation("invalid_day_end", "Slot day end must be HH:MM.", nil)
	}
	if !dayStart.Before(dayEnd) || uc.window.Step <= 0 {
		return []domain.TimeSlot{}, nil
	}

	slots := []domain.TimeSlot{}

	err = uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		property, err := tx.GetProperty(ctx, in.PropertyID)
		if err != nil {
			return err
		}

		office, err := uc.offices.MainOffice(ctx, tx)
		if err != nil {
			return err
		}

		travel, err := uc.calc.Travel(ctx, office, property)
		if err != nil {
			return err
		}

		leg := time.Duration(travel.DurationMin) * time.Minute
		booked, err := tx.ListActiveAppointments(ctx, domain.ActiveQuery{
			Kind:       domain.ResourceAgent,
			ResourceID: in.AgentID,
			EndsAfter:  dayStart.Add(-leg).UTC(),
		})
		if err != nil {
			return err
		}

		now := uc.now()
		for cur := dayStart; !cur.After(dayEnd); cur = cur.Add(uc.window.Step) {
			c := uc.calc.Derive(travel, cur.UTC())
			if c.DepartureTime.Before(now) {
				continue
			}
			if domain.FirstOverlap(domain.ResourceAgent, booked, c.AgentWindow(), nil) != nil {
				continue
			}
			slots = append(slots, domain.TimeSlot{
				StartsAt:           c.StartsAt,
				DepartureTime:      c.DepartureTime,
				AvailableAgainTime: c.AvailableAgainTime,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return slots, nil
}
