package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/dto"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

type ListSchedule struct {
	uow domain.UnitOfWork
}

func NewListSchedule(uow domain.UnitOfWork) *ListSchedule {
	return &ListSchedule{uow: uow}
}

// Execute lists one agent's appointments.
func (uc *ListSchedule) Execute(
	ctx context.Context,
	agentID uuid.UUID,
	filter domain.ScheduleFilter,
) ([]dto.AppointmentListDTO, error) {
	filter.AgentID = &agentID
	return uc.ExecuteAll(ctx, filter)
}

// ExecuteAll lists appointments across agents, narrowed only by
// filter.AgentID when it is set.
func (uc *ListSchedule) ExecuteAll(
	ctx context.Context,
	filter domain.ScheduleFilter,
) ([]dto.AppointmentListDTO, error) {

	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, httperr.Validation("invalid_range", "from must be before to.", nil)
	}
	filter.Search = strings.TrimSpace(filter.Search)

	var result []dto.AppointmentListDTO

	err := uc.uow.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		aps, err := tx.ListSchedule(ctx, filter)
		if err != nil {
			return err
		}
		result = dto.AppointmentList(aps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
