package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
)

type DeleteAppointment struct {
	uow   domain.UnitOfWork
	audit *audit.Dispatcher
}

func NewDeleteAppointment(uow domain.UnitOfWork, audit *audit.Dispatcher) *DeleteAppointment {
	return &DeleteAppointment{uow: uow, audit: audit}
}

// Execute removes one of the agent's appointments. Freeing a window can
// never create an overlap, so no conflict check runs.
func (uc *DeleteAppointment) Execute(ctx context.Context, agentID, appointmentID uuid.UUID) error {
	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.DeleteAppointment(ctx, appointmentID, agentID)
	})
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		AgentID:  &agentID,
		Action:   "appointment_deleted",
		Entity:   "appointment",
		EntityID: &appointmentID,
	})
	return nil
}

// ExecuteAsAdmin removes an appointment whatever agent owns it. The owner
// lock is taken so the delete cannot interleave with that agent's bookings.
func (uc *DeleteAppointment) ExecuteAsAdmin(ctx context.Context, adminID, appointmentID uuid.UUID) error {
	var owner uuid.UUID

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		owner, err = tx.GetAppointmentOwner(ctx, appointmentID)
		if err != nil {
			return err
		}
		if err := tx.LockResource(ctx, domain.AgentLockKey(owner)); err != nil {
			return err
		}
		return tx.DeleteAppointment(ctx, appointmentID, owner)
	})
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		AgentID:  &owner,
		Action:   "appointment_deleted",
		Entity:   "appointment",
		EntityID: &appointmentID,
		Metadata: map[string]any{"admin_id": adminID},
	})
	return nil
}
