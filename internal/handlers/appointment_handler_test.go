package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/dto"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/middleware"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	usecase "github.com/BruksfildServices01/viewing-scheduler/internal/usecase/appointment"
)

type stubCreator struct {
	calls int
	got   usecase.CreateAppointmentInput
	err   error
}

func (s *stubCreator) Execute(_ context.Context, in usecase.CreateAppointmentInput) (*models.Appointment, error) {
	s.calls++
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return &models.Appointment{ID: uuid.New(), AgentID: in.AgentID, StartsAt: in.StartsAt}, nil
}

type stubUpdater struct {
	got usecase.UpdateAppointmentInput
}

func (s *stubUpdater) Execute(_ context.Context, in usecase.UpdateAppointmentInput) (*models.Appointment, error) {
	s.got = in
	return &models.Appointment{ID: in.ID}, nil
}

type stubSchedule struct {
	all    bool
	filter domain.ScheduleFilter
}

func (s *stubSchedule) Execute(_ context.Context, agentID uuid.UUID, f domain.ScheduleFilter) ([]dto.AppointmentListDTO, error) {
	f.AgentID = &agentID
	s.filter = f
	return nil, nil
}

func (s *stubSchedule) ExecuteAll(_ context.Context, f domain.ScheduleFilter) ([]dto.AppointmentListDTO, error) {
	s.all = true
	s.filter = f
	return nil, nil
}

// authenticated stands in for AuthMiddleware and ActiveUser.
func authenticated(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	}
}

func appointmentRouter(h *AppointmentHandler, userID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authenticated(userID, role))
	r.POST("/appointments", h.Create)
	r.GET("/appointments", h.Schedule)

	admin := r.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.GET("/appointments", h.AdminSchedule)
	admin.PATCH("/appointments/:id", h.AdminUpdate)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) httperr.HTTPError {
	t.Helper()
	var e httperr.HTTPError
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return e
}

func createBody(startsAt string) string {
	return `{"customer":{"first_name":"Carol","last_name":"Customer","email":"carol@example.com","phone":"07700900123"},` +
		`"property_id":"` + uuid.NewString() + `","starts_at":"` + startsAt + `"}`
}

func TestCreateAppointmentConflictResponse(t *testing.T) {
	blocking := uuid.New()
	start := time.Date(2025, 1, 1, 9, 45, 0, 0, time.UTC)
	creator := &stubCreator{err: httperr.Conflict("agent_conflict", "Agent has a conflicting appointment", &httperr.ConflictDetails{
		Resource:      "agent",
		AppointmentID: blocking,
		PropertyTitle: "P1",
		Start:         start,
		End:           start.Add(90 * time.Minute),
	})}
	h := NewAppointmentHandler(AppointmentUseCases{Create: creator}, time.UTC)

	w := send(appointmentRouter(h, uuid.New(), models.RoleAgent), http.MethodPost, "/appointments", createBody("2025-01-01T10:30:00Z"))
	if w.Code != http.StatusConflict {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var body struct {
		Code    string                  `json:"error_code"`
		Kind    string                  `json:"kind"`
		Details httperr.ConflictDetails `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "agent_conflict" || body.Kind != string(httperr.KindConflict) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if body.Details.AppointmentID != blocking || body.Details.PropertyTitle != "P1" || !body.Details.Start.Equal(start) {
		t.Fatalf("unexpected details %+v", body.Details)
	}
}

func TestCreateAppointmentRejectsBadStartsAt(t *testing.T) {
	creator := &stubCreator{}
	h := NewAppointmentHandler(AppointmentUseCases{Create: creator}, time.UTC)
	r := appointmentRouter(h, uuid.New(), models.RoleAgent)

	for _, raw := range []string{"2025-01-01 10:00", "tomorrow", "2025-01-01T10:00:00"} {
		w := send(r, http.MethodPost, "/appointments", createBody(raw))
		if w.Code != http.StatusBadRequest || decodeError(t, w).Code != "invalid_starts_at" {
			t.Errorf("%q: status %d body %s", raw, w.Code, w.Body.String())
		}
	}
	if creator.calls != 0 {
		t.Fatalf("use case called %d times for invalid input", creator.calls)
	}
}

func TestCreateAppointmentPassesAgentAndTime(t *testing.T) {
	agent := uuid.New()
	creator := &stubCreator{}
	h := NewAppointmentHandler(AppointmentUseCases{Create: creator}, time.UTC)

	w := send(appointmentRouter(h, agent, models.RoleAgent), http.MethodPost, "/appointments", createBody("2025-01-01T11:30:00+01:00"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if creator.got.AgentID != agent || !creator.got.StartsAt.Equal(time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected input %+v", creator.got)
	}
	if creator.got.Customer.Email != "carol@example.com" {
		t.Fatalf("customer not passed through: %+v", creator.got.Customer)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	h := NewAppointmentHandler(AppointmentUseCases{Schedule: &stubSchedule{}}, time.UTC)

	w := send(appointmentRouter(h, uuid.New(), models.RoleAgent), http.MethodGet, "/admin/appointments", "")
	if w.Code != http.StatusForbidden || decodeError(t, w).Code != "insufficient_role" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestAdminScheduleListsAcrossAgents(t *testing.T) {
	schedule := &stubSchedule{}
	h := NewAppointmentHandler(AppointmentUseCases{Schedule: schedule}, time.UTC)
	r := appointmentRouter(h, uuid.New(), models.RoleAdmin)

	w := send(r, http.MethodGet, "/admin/appointments?q=keys", "")
	if w.Code != http.StatusOK || !schedule.all || schedule.filter.AgentID != nil || schedule.filter.Search != "keys" {
		t.Fatalf("status %d filter %+v", w.Code, schedule.filter)
	}

	agent := uuid.New()
	send(r, http.MethodGet, "/admin/appointments?agent_id="+agent.String(), "")
	if schedule.filter.AgentID == nil || *schedule.filter.AgentID != agent {
		t.Fatalf("agent filter not applied: %+v", schedule.filter)
	}

	if w := send(r, http.MethodGet, "/admin/appointments?agent_id=nope", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad agent_id: status %d", w.Code)
	}
}

func TestAdminUpdateActsAsAdmin(t *testing.T) {
	admin := uuid.New()
	updater := &stubUpdater{}
	h := NewAppointmentHandler(AppointmentUseCases{Update: updater}, time.UTC)

	id := uuid.New()
	w := send(appointmentRouter(h, admin, models.RoleAdmin), http.MethodPatch, "/admin/appointments/"+id.String(), `{"notes":"moved by office"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if updater.got.ID != id || updater.got.AdminID != admin || updater.got.AgentID != uuid.Nil {
		t.Fatalf("unexpected input %+v", updater.got)
	}
}
