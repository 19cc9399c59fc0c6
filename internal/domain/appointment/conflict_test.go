package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// listTx serves ListActiveAppointments from a fixed slice; every other Tx
// method panics.
type listTx struct {
	Tx
	apps  []models.Appointment
	query ActiveQuery
}

func (l *listTx) ListActiveAppointments(_ context.Context, q ActiveQuery) ([]models.Appointment, error) {
	l.query = q
	return l.apps, nil
}

func booked(start, depart, ret string, status Status) models.Appointment {
	return models.Appointment{
		ID:                 uuid.New(),
		StartsAt:           at(start),
		DepartureTime:      at(depart),
		ReturnTime:         at(ret),
		AvailableAgainTime: at(ret),
		Status:             string(status),
		Property:           models.Property{Title: "Flat 1"},
		Agent:              models.User{FirstName: "Ada", LastName: "Agent"},
	}
}

func TestFindConflictAgent(t *testing.T) {
	existing := booked("10:00", "09:45", "11:15", StatusScheduled)
	tx := &listTx{apps: []models.Appointment{existing}}
	agentID := uuid.New()

	got, err := ConflictChecker{}.FindConflict(context.Background(), tx, ResourceAgent, agentID, span("11:00", "12:00"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != existing.ID {
		t.Fatalf("expected conflict with %s, got %v", existing.ID, got)
	}
	if tx.query.Kind != ResourceAgent || tx.query.ResourceID != agentID {
		t.Fatalf("queried wrong resource: %+v", tx.query)
	}

	got, err = ConflictChecker{}.FindConflict(context.Background(), tx, ResourceAgent, agentID, span("11:15", "12:15"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("back-to-back window must not conflict, got %s", got.ID)
	}
}

func TestFindConflictCustomerUsesNarrowWindow(t *testing.T) {
	// agent busy 09:45-11:15, customer only 10:00-11:15
	existing := booked("10:00", "09:45", "11:15", StatusScheduled)
	tx := &listTx{apps: []models.Appointment{existing}}

	got, _ := ConflictChecker{}.FindConflict(context.Background(), tx, ResourceCustomer, uuid.New(), span("09:30", "10:00"), nil)
	if got != nil {
		t.Fatal("customer window starts at the visit, not at departure")
	}

	got, _ = ConflictChecker{}.FindConflict(context.Background(), tx, ResourceAgent, uuid.New(), span("09:30", "10:00"), nil)
	if got == nil {
		t.Fatal("agent window includes the outbound leg")
	}
}

func TestFirstOverlapSkipsExcludedAndCancelled(t *testing.T) {
	self := booked("10:00", "09:45", "11:15", StatusScheduled)
	cancelled := booked("10:00", "09:45", "11:15", StatusCancelled)
	completed := booked("12:00", "11:45", "13:15", StatusCompleted)
	apps := []models.Appointment{self, cancelled, completed}

	if got := FirstOverlap(ResourceAgent, apps, span("10:30", "11:00"), &self.ID); got != nil {
		t.Fatalf("expected no conflict, got %s", got.ID)
	}
	if got := FirstOverlap(ResourceAgent, apps, span("12:30", "12:45"), &self.ID); got == nil || got.ID != completed.ID {
		t.Fatal("completed appointments still hold their window")
	}
}

func TestConflictErrorDetails(t *testing.T) {
	existing := booked("10:00", "09:45", "11:15", StatusScheduled)

	err := ConflictError(ResourceAgent, &existing)
	if !httperr.HasCode(err, "agent_conflict") {
		t.Fatalf("unexpected error %v", err)
	}
	e := err.(*httperr.Error)
	d := e.Details.(*httperr.ConflictDetails)
	if d.AppointmentID != existing.ID || d.PropertyTitle != "Flat 1" || !d.Start.Equal(at("09:45")) || !d.End.Equal(at("11:15")) {
		t.Fatalf("unexpected details %+v", d)
	}

	err = ConflictError(ResourceCustomer, &existing)
	d = err.(*httperr.Error).Details.(*httperr.ConflictDetails)
	if !httperr.HasCode(err, "customer_conflict") || d.AgentName != "Ada Agent" || !d.Start.Equal(at("10:00")) {
		t.Fatalf("unexpected customer conflict %v / %+v", err, d)
	}
}
