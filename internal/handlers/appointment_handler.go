package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/dto"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/middleware"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	usecase "github.com/BruksfildServices01/viewing-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentCreator interface {
	Execute(ctx context.Context, in usecase.CreateAppointmentInput) (*models.Appointment, error)
}

type AppointmentUpdater interface {
	Execute(ctx context.Context, in usecase.UpdateAppointmentInput) (*models.Appointment, error)
}

type AppointmentRemover interface {
	Execute(ctx context.Context, agentID, appointmentID uuid.UUID) error
	ExecuteAsAdmin(ctx context.Context, adminID, appointmentID uuid.UUID) error
}

// AppointmentTransition moves one of the agent's appointments to a new
// status.
type AppointmentTransition interface {
	Execute(ctx context.Context, agentID, appointmentID uuid.UUID) (*models.Appointment, error)
}

type ScheduleLister interface {
	Execute(ctx context.Context, agentID uuid.UUID, f domain.ScheduleFilter) ([]dto.AppointmentListDTO, error)
	ExecuteAll(ctx context.Context, f domain.ScheduleFilter) ([]dto.AppointmentListDTO, error)
}

type SlotSuggester interface {
	Execute(ctx context.Context, in domain.AvailabilityInput) ([]domain.TimeSlot, error)
}

type AppointmentHandler struct {
	create   AppointmentCreator
	update   AppointmentUpdater
	remove   AppointmentRemover
	cancel   AppointmentTransition
	complete AppointmentTransition
	schedule ScheduleLister
	slots    SlotSuggester
	loc      *time.Location
}

type AppointmentUseCases struct {
	Create   AppointmentCreator
	Update   AppointmentUpdater
	Delete   AppointmentRemover
	Cancel   AppointmentTransition
	Complete AppointmentTransition
	Schedule ScheduleLister
	Slots    SlotSuggester
}

func NewAppointmentHandler(uc AppointmentUseCases, loc *time.Location) *AppointmentHandler {
	return &AppointmentHandler{
		create:   uc.Create,
		update:   uc.Update,
		remove:   uc.Delete,
		cancel:   uc.Cancel,
		complete: uc.Complete,
		schedule: uc.Schedule,
		slots:    uc.Slots,
		loc:      loc,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	Customer   usecase.CustomerInput `json:"customer"`
	PropertyID string                `json:"property_id" binding:"required"`
	StartsAt   string                `json:"starts_at" binding:"required"`
	Notes      string                `json:"notes"`
}

type UpdateAppointmentRequest struct {
	PropertyID *string `json:"property_id"`
	StartsAt   *string `json:"starts_at"`
	Notes      *string `json:"notes"`
	Status     *string `json:"status"`
}

// ======================================================
// HELPERS
// ======================================================

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "Invalid id.")
		return uuid.Nil, false
	}
	return id, true
}

func parseStartsAt(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, httperr.Validation("invalid_starts_at", "starts_at must be an RFC3339 date-time.", nil)
	}
	return t, nil
}

func parsePropertyID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, httperr.Validation("invalid_property", "property_id must be a UUID.", nil)
	}
	return id, nil
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	agentID := middleware.UserID(c)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	propertyID, err := parsePropertyID(req.PropertyID)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	startsAt, err := parseStartsAt(req.StartsAt)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	created, err := h.create.Execute(c.Request.Context(), usecase.CreateAppointmentInput{
		AgentID:    agentID,
		Customer:   req.Customer,
		PropertyID: propertyID,
		StartsAt:   startsAt,
		Notes:      req.Notes,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, created)
}

// ======================================================
// UPDATE
// ======================================================

func (h *AppointmentHandler) Update(c *gin.Context) {
	in, ok := h.updateInput(c)
	if !ok {
		return
	}
	in.AgentID = middleware.UserID(c)
	h.applyUpdate(c, in)
}

func (h *AppointmentHandler) updateInput(c *gin.Context) (usecase.UpdateAppointmentInput, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return usecase.UpdateAppointmentInput{}, false
	}

	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return usecase.UpdateAppointmentInput{}, false
	}

	in := usecase.UpdateAppointmentInput{
		ID:     id,
		Notes:  req.Notes,
		Status: req.Status,
	}

	if req.PropertyID != nil {
		pid, err := parsePropertyID(*req.PropertyID)
		if err != nil {
			httperr.FromError(c, err)
			return usecase.UpdateAppointmentInput{}, false
		}
		in.PropertyID = &pid
	}
	if req.StartsAt != nil {
		t, err := parseStartsAt(*req.StartsAt)
		if err != nil {
			httperr.FromError(c, err)
			return usecase.UpdateAppointmentInput{}, false
		}
		in.StartsAt = &t
	}
	return in, true
}

func (h *AppointmentHandler) applyUpdate(c *gin.Context, in usecase.UpdateAppointmentInput) {
	updated, err := h.update.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, updated)
}

// ======================================================
// DELETE
// ======================================================

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.remove.Execute(c.Request.Context(), middleware.UserID(c), id); err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.NoContent(c)
}

// ======================================================
// COMPLETE / CANCEL
// ======================================================

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ap, err := h.complete.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// SCHEDULE
// ======================================================

// Schedule lists the agent's appointments. from/to accept a date
// (YYYY-MM-DD, in the display timezone) or an RFC3339 date-time.
func (h *AppointmentHandler) Schedule(c *gin.Context) {
	filter, ok := h.scheduleFilter(c)
	if !ok {
		return
	}

	list, err := h.schedule.Execute(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, list)
}

func (h *AppointmentHandler) scheduleFilter(c *gin.Context) (domain.ScheduleFilter, bool) {
	filter := domain.ScheduleFilter{
		Search:  c.Query("q"),
		OrderBy: c.Query("orderBy"),
	}

	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := h.parseBound(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_"+param, "Invalid "+param+" date.")
			return filter, false
		}
		*dst = &t
	}
	return filter, true
}

func (h *AppointmentHandler) parseBound(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, h.loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ======================================================
// SLOTS
// ======================================================

func (h *AppointmentHandler) Slots(c *gin.Context) {
	propertyID, err := uuid.Parse(c.Query("property_id"))
	if err != nil {
		httperr.BadRequest(c, "invalid_property", "property_id must be a UUID.")
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.loc)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD.")
		return
	}

	slots, err := h.slots.Execute(c.Request.Context(), domain.AvailabilityInput{
		AgentID:    middleware.UserID(c),
		PropertyID: propertyID,
		Date:       date,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, slots)
}

// ======================================================
// ADMIN
// ======================================================

// AdminSchedule lists appointments across every agent, or one agent when
// agent_id is given.
func (h *AppointmentHandler) AdminSchedule(c *gin.Context) {
	filter, ok := h.scheduleFilter(c)
	if !ok {
		return
	}

	if raw := c.Query("agent_id"); raw != "" {
		agentID, err := uuid.Parse(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_agent", "agent_id must be a UUID.")
			return
		}
		filter.AgentID = &agentID
	}

	list, err := h.schedule.ExecuteAll(c.Request.Context(), filter)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, list)
}

// AdminUpdate patches any agent's appointment. Conflicts are checked
// against the owning agent's schedule.
func (h *AppointmentHandler) AdminUpdate(c *gin.Context) {
	in, ok := h.updateInput(c)
	if !ok {
		return
	}
	in.AdminID = middleware.UserID(c)
	h.applyUpdate(c, in)
}

func (h *AppointmentHandler) AdminDelete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.remove.ExecuteAsAdmin(c.Request.Context(), middleware.UserID(c), id); err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.NoContent(c)
}
