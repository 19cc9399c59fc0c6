package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type CompleteAppointment struct {
	uow   domain.UnitOfWork
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewCompleteAppointment(
	uow domain.UnitOfWork,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		uow:   uow,
		audit: audit,
		now:   time.Now,
	}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	agentID uuid.UUID,
	appointmentID uuid.UUID,
) (*models.Appointment, error) {

	var ap *models.Appointment

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		found, err := tx.GetAppointmentForAgent(ctx, appointmentID, agentID)
		if err != nil {
			return err
		}

		if err := domain.Complete(found, uc.now().UTC()); err != nil {
			return err
		}

		if err := tx.UpdateAppointment(ctx, found); err != nil {
			return err
		}
		ap = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		AgentID:  &agentID,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}
