package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// ActiveQuery selects the non-cancelled appointments of one resource whose
// busy window ends after EndsAfter, optionally skipping one appointment.
type ActiveQuery struct {
	Kind       ResourceKind
	ResourceID uuid.UUID
	EndsAfter  time.Time
	ExcludeID  *uuid.UUID
}

// ScheduleFilter narrows a schedule listing. A nil AgentID lists every
// agent's appointments.
type ScheduleFilter struct {
	AgentID *uuid.UUID
	Search  string
	OrderBy string
	From    *time.Time
	To      *time.Time
}

// Tx is the transaction context shared by every step of a scheduling
// operation. Reads, locks and writes made through the same Tx commit or
// roll back together.
type Tx interface {
	// -------- Locks --------
	LockResource(ctx context.Context, key string) error

	// -------- Lookups --------
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	GetOfficeByName(ctx context.Context, name string) (*models.Office, error)

	// -------- Customer --------
	FindOrCreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)

	// -------- Appointment --------
	GetAppointmentOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetAppointmentForAgent(ctx context.Context, id, agentID uuid.UUID) (*models.Appointment, error)
	ListActiveAppointments(ctx context.Context, q ActiveQuery) ([]models.Appointment, error)
	ListSchedule(ctx context.Context, f ScheduleFilter) ([]models.Appointment, error)
	CreateAppointment(ctx context.Context, ap *models.Appointment) error
	UpdateAppointment(ctx context.Context, ap *models.Appointment) error
	DeleteAppointment(ctx context.Context, id, agentID uuid.UUID) error
}

// UnitOfWork runs fn inside one atomic transaction. An error returned by
// fn, or a cancelled ctx, rolls everything back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// OfficeProvider resolves the single office all travel is computed from.
type OfficeProvider interface {
	MainOffice(ctx context.Context, tx Tx) (*models.Office, error)
}

// NamedOffice reads the office with the configured name through tx.
type NamedOffice struct {
	Name string
}

func (p NamedOffice) MainOffice(ctx context.Context, tx Tx) (*models.Office, error) {
	return tx.GetOfficeByName(ctx, p.Name)
}

// FixedOffice always returns the same office.
type FixedOffice struct {
	Office models.Office
}

func (p FixedOffice) MainOffice(context.Context, Tx) (*models.Office, error) {
	o := p.Office
	return &o, nil
}

// ===============================
// Lock keys
// ===============================

// Locks are always taken in this order within one transaction: agent,
// customer email, customer id.

func AgentLockKey(agentID uuid.UUID) string {
	return "agent:" + agentID.String()
}

func CustomerEmailLockKey(email string) string {
	return "customer-email:" + NormalizeEmail(email)
}

func CustomerLockKey(customerID uuid.UUID) string {
	return "customer:" + customerID.String()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ===============================
// Schedule ordering
// ===============================

var scheduleOrderColumns = map[string]bool{
	"starts_at":           true,
	"distance_km":         true,
	"travel_duration_min": true,
	"departure_time":      true,
	"return_time":         true,
}

// ParseOrderBy accepts "column" or "column:asc|desc". Unknown columns fall
// back to starts_at ascending.
func ParseOrderBy(raw string) (column string, desc bool) {
	col, dir, _ := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), ":")
	if !scheduleOrderColumns[col] {
		return "starts_at", false
	}
	return col, dir == "desc"
}
