package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	"github.com/BruksfildServices01/viewing-scheduler/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

// UpdateAppointmentInput is a partial patch. Nil fields are left unchanged.
// A non-zero AdminID acts on the appointment whatever agent owns it, and
// AgentID is then ignored.
type UpdateAppointmentInput struct {
	ID      uuid.UUID `json:"-"`
	AgentID uuid.UUID `json:"-"`
	AdminID uuid.UUID `json:"-"`

	PropertyID *uuid.UUID `json:"property_id"`
	StartsAt   *time.Time `json:"starts_at"`
	Notes      *string    `json:"notes" validate:"omitempty,max=2000"`
	Status     *string    `json:"status" validate:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED"`
}

func (in UpdateAppointmentInput) reschedules() bool {
	return in.PropertyID != nil || in.StartsAt != nil
}

func (in UpdateAppointmentInput) validate() error {
	if err := validators.Struct(in); err != nil {
		return err
	}
	if in.PropertyID != nil && *in.PropertyID == uuid.Nil {
		return httperr.Validation("invalid_property", "property_id must be a valid id.", nil)
	}
	if in.StartsAt != nil && in.StartsAt.IsZero() {
		return httperr.Validation("invalid_starts_at", "starts_at must be a valid time.", nil)
	}
	return nil
}

// ======================================================
// USE CASE
// ======================================================

type UpdateAppointment struct {
	uow     domain.UnitOfWork
	offices domain.OfficeProvider
	calc    *domain.Calculator
	checker domain.ConflictChecker
	audit   *audit.Dispatcher
	log     *zap.Logger
	now     func() time.Time
}

func NewUpdateAppointment(
	uow domain.UnitOfWork,
	offices domain.OfficeProvider,
	calc *domain.Calculator,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *UpdateAppointment {
	return &UpdateAppointment{
		uow:     uow,
		offices: offices,
		calc:    calc,
		audit:   audit,
		log:     log,
		now:     time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *UpdateAppointment) Execute(
	ctx context.Context,
	in UpdateAppointmentInput,
) (*models.Appointment, error) {

	if err := in.validate(); err != nil {
		return nil, err
	}

	var status *domain.Status
	if in.Status != nil {
		st, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = &st
	}

	var updated *models.Appointment
	agentID := in.AgentID

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {

		if in.AdminID != uuid.Nil {
			owner, err := tx.GetAppointmentOwner(ctx, in.ID)
			if err != nil {
				return err
			}
			agentID = owner
		}

		if err := tx.LockResource(ctx, domain.AgentLockKey(agentID)); err != nil {
			return err
		}

		ap, err := tx.GetAppointmentForAgent(ctx, in.ID, agentID)
		if err != nil {
			return err
		}

		if status != nil {
			if err := domain.SetStatus(ap, *status, uc.now().UTC()); err != nil {
				return err
			}
		}
		if in.Notes != nil {
			ap.Notes = *in.Notes
		}

		if in.reschedules() {
			if err := uc.reschedule(ctx, tx, ap, in); err != nil {
				return err
			}
		}

		if err := tx.UpdateAppointment(ctx, ap); err != nil {
			return err
		}

		updated = ap
		return nil
	})
	if err != nil {
		if httperr.Is(err, httperr.KindConflict) {
			uc.audit.Dispatch(audit.Event{
				AgentID:  &agentID,
				Action:   "appointment_conflict",
				Entity:   "appointment",
				EntityID: &in.ID,
				Metadata: conflictMetadata(err),
			})
		}
		return nil, err
	}

	ev := audit.Event{
		AgentID:  &agentID,
		Action:   "appointment_updated",
		Entity:   "appointment",
		EntityID: &updated.ID,
	}
	if in.AdminID != uuid.Nil {
		ev.Metadata = map[string]any{"admin_id": in.AdminID}
	}
	uc.audit.Dispatch(ev)

	return updated, nil
}

// reschedule recomputes ap's windows for the new property or start time
// and checks both resources, ignoring ap itself.
func (uc *UpdateAppointment) reschedule(
	ctx context.Context,
	tx domain.Tx,
	ap *models.Appointment,
	in UpdateAppointmentInput,
) error {

	propertyID := ap.PropertyID
	if in.PropertyID != nil {
		propertyID = *in.PropertyID
	}
	startsAt := ap.StartsAt
	if in.StartsAt != nil {
		startsAt = in.StartsAt.UTC()
	}

	property, err := tx.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}

	office, err := uc.offices.MainOffice(ctx, tx)
	if err != nil {
		return err
	}

	calc, err := uc.calc.Calculate(ctx, office, property, startsAt)
	if err != nil {
		return err
	}

	// a cancelled appointment holds no window, so there is nothing to check
	if domain.Status(ap.Status) != domain.StatusCancelled {
		self := ap.ID

		blocking, err := uc.checker.FindConflict(ctx, tx, domain.ResourceAgent, ap.AgentID, calc.AgentWindow(), &self)
		if err != nil {
			return err
		}
		if blocking != nil {
			return domain.ConflictError(domain.ResourceAgent, blocking)
		}

		if err := tx.LockResource(ctx, domain.CustomerLockKey(ap.CustomerID)); err != nil {
			return err
		}
		blocking, err = uc.checker.FindConflict(ctx, tx, domain.ResourceCustomer, ap.CustomerID, calc.CustomerWindow(), &self)
		if err != nil {
			return err
		}
		if blocking != nil {
			return domain.ConflictError(domain.ResourceCustomer, blocking)
		}
	}

	calc.Apply(ap)
	ap.PropertyID = property.ID
	ap.Property = *property
	return nil
}
