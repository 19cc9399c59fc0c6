package appointment

import (
	"context"
	"strings"
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

type CustomerInput struct {
	FirstName string `json:"first_name" validate:"required,min=3"`
	LastName  string `json:"last_name" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,min=10"`
}

type CreateAppointmentInput struct {
	AgentID    uuid.UUID     `json:"-"`
	Customer   CustomerInput `json:"customer"`
	PropertyID uuid.UUID     `json:"property_id"`
	StartsAt   time.Time     `json:"starts_at"`
	Notes      string        `json:"notes" validate:"max=2000"`
}

func (in CreateAppointmentInput) validate() error {
	if err := validators.Struct(in); err != nil {
		return err
	}
	if in.AgentID == uuid.Nil {
		return httperr.Validation("invalid_agent", "Agent is required.", nil)
	}
	if in.PropertyID == uuid.Nil {
		return httperr.Validation("invalid_property", "property_id is required.", nil)
	}
	if in.StartsAt.IsZero() {
		return httperr.Validation("invalid_starts_at", "starts_at is required.", nil)
	}
	return nil
}

// ======================================================
// USE CASE
// ======================================================

type CreateAppointment struct {
	uow     domain.UnitOfWork
	offices domain.OfficeProvider
	calc    *domain.Calculator
	checker domain.ConflictChecker
	audit   *audit.Dispatcher
	log     *zap.Logger
}

func NewCreateAppointment(
	uow domain.UnitOfWork,
	offices domain.OfficeProvider,
	calc *domain.Calculator,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *CreateAppointment {
	return &CreateAppointment{
		uow:     uow,
		offices: offices,
		calc:    calc,
		audit:   audit,
		log:     log,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateAppointment) Execute(
	ctx context.Context,
	in CreateAppointmentInput,
) (*models.Appointment, error) {

	in.Customer.Email = domain.NormalizeEmail(in.Customer.Email)
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.StartsAt = in.StartsAt.UTC()

	var created *models.Appointment

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {

		// --------------------------------------------------
		// 1. Property
		// --------------------------------------------------
		property, err := tx.GetProperty(ctx, in.PropertyID)
		if err != nil {
			return err
		}

		// --------------------------------------------------
		// 2. Main office
		// --------------------------------------------------
		office, err := uc.offices.MainOffice(ctx, tx)
		if err != nil {
			return err
		}

		// --------------------------------------------------
		// 3. Busy window
		// --------------------------------------------------
		calc, err := uc.calc.Calculate(ctx, office, property, in.StartsAt)
		if err != nil {
			return err
		}

		// --------------------------------------------------
		// 4. Agent conflict
		// --------------------------------------------------
		if err := tx.LockResource(ctx, domain.AgentLockKey(in.AgentID)); err != nil {
			return err
		}
		blocking, err := uc.checker.FindConflict(ctx, tx, domain.ResourceAgent, in.AgentID, calc.AgentWindow(), nil)
		if err != nil {
			return err
		}
		if blocking != nil {
			return domain.ConflictError(domain.ResourceAgent, blocking)
		}

		// --------------------------------------------------
		// 5. Customer (find or create)
		// --------------------------------------------------
		if err := tx.LockResource(ctx, domain.CustomerEmailLockKey(in.Customer.Email)); err != nil {
			return err
		}
		customer, err := tx.FindOrCreateCustomer(ctx, &models.Customer{
			FirstName: strings.TrimSpace(in.Customer.FirstName),
			LastName:  strings.TrimSpace(in.Customer.LastName),
			Email:     in.Customer.Email,
			Phone:     strings.TrimSpace(in.Customer.Phone),
		})
		if err != nil {
			return err
		}

		// --------------------------------------------------
		// 6. Customer conflict
		// --------------------------------------------------
		if err := tx.LockResource(ctx, domain.CustomerLockKey(customer.ID)); err != nil {
			return err
		}
		blocking, err = uc.checker.FindConflict(ctx, tx, domain.ResourceCustomer, customer.ID, calc.CustomerWindow(), nil)
		if err != nil {
			return err
		}
		if blocking != nil {
			return domain.ConflictError(domain.ResourceCustomer, blocking)
		}

		// --------------------------------------------------
		// 7. Persist
		// --------------------------------------------------
		ap := &models.Appointment{
			AgentID:    in.AgentID,
			CustomerID: customer.ID,
			PropertyID: property.ID,
			Notes:      in.Notes,
			Status:     string(domain.InitialStatus()),
		}
		calc.Apply(ap)

		if err := tx.CreateAppointment(ctx, ap); err != nil {
			return err
		}

		ap.Customer = *customer
		ap.Property = *property
		created = ap
		return nil
	})
	if err != nil {
		uc.reportFailure(in, err)
		return nil, err
	}

	uc.log.Info("appointment created",
		zap.String("appointment_id", created.ID.String()),
		zap.String("agent_id", in.AgentID.String()),
		zap.Time("departure_time", created.DepartureTime),
		zap.Time("available_again_time", created.AvailableAgainTime),
	)

	uc.audit.Dispatch(audit.Event{
		AgentID:  &in.AgentID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &created.ID,
	})

	return created, nil
}

func (uc *CreateAppointment) reportFailure(in CreateAppointmentInput, err error) {
	switch httperr.KindOf(err) {
	case httperr.KindConflict:
		uc.log.Info("appointment rejected", zap.String("agent_id", in.AgentID.String()), zap.Error(err))
		uc.audit.Dispatch(audit.Event{
			AgentID:  &in.AgentID,
			Action:   "appointment_conflict",
			Entity:   "appointment",
			Metadata: conflictMetadata(err),
		})
	case httperr.KindDependency, httperr.KindInternal:
		uc.log.Error("appointment create failed", zap.String("agent_id", in.AgentID.String()), zap.Error(err))
	}
}
