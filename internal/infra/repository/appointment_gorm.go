package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// GormUnitOfWork runs scheduling operations in a Postgres transaction.
// Resource exclusion relies on transaction-scoped advisory locks, released
// by Postgres on commit or rollback.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, tx domain.Tx) error,
) error {
	err := u.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &gormTx{db: db})
	})
	return translate(err)
}

type gormTx struct {
	db *gorm.DB
}

// --------------------------------------------------
// Locks
// --------------------------------------------------

func (t *gormTx) LockResource(ctx context.Context, key string) error {
	return advisoryLock(ctx, t.db, key)
}

// --------------------------------------------------
// Lookups
// --------------------------------------------------

func (t *gormTx) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := t.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("property_not_found", "Property not found.")
		}
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) GetOfficeByName(ctx context.Context, name string) (*models.Office, error) {
	var o models.Office
	if err := t.db.WithContext(ctx).Where("name = ?", name).Take(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("office_not_found", "Main office not found.")
		}
		return nil, err
	}
	return &o, nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

// FindOrCreateCustomer relies on the unique email index so that even a
// caller without the email lock can never insert a duplicate.
func (t *gormTx) FindOrCreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	db := t.db.WithContext(ctx)
	email := domain.NormalizeEmail(c.Email)

	var existing models.Customer
	err := db.Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c.Email = email
	if err := db.
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(c).Error; err != nil {
		return nil, err
	}

	if err := db.Where("email = ?", email).Take(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

// GetAppointmentOwner reads the agent an appointment belongs to, without
// locking the row. Callers lock the agent and then re-read the row.
func (t *gormTx) GetAppointmentOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var ap models.Appointment
	if err := t.db.WithContext(ctx).Select("agent_id").Where("id = ?", id).Take(&ap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, httperr.NotFound("appointment_not_found", "Appointment not found.")
		}
		return uuid.Nil, err
	}
	return ap.AgentID, nil
}

func (t *gormTx) GetAppointmentForAgent(ctx context.Context, id, agentID uuid.UUID) (*models.Appointment, error) {
	var ap models.Appointment
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND agent_id = ?", id, agentID).
		Take(&ap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("appointment_not_found", "Appointment not found.")
		}
		return nil, err
	}
	return &ap, nil
}

func (t *gormTx) ListActiveAppointments(ctx context.Context, q domain.ActiveQuery) ([]models.Appointment, error) {
	db := t.db.WithContext(ctx).
		Preload("Property").
		Preload("Agent").
		Where("status <> ?", string(domain.StatusCancelled))

	if q.Kind == domain.ResourceCustomer {
		db = db.Where("customer_id = ? AND return_time > ?", q.ResourceID, q.EndsAfter).
			Order("starts_at ASC")
	} else {
		db = db.Where("agent_id = ? AND available_again_time > ?", q.ResourceID, q.EndsAfter).
			Order("departure_time ASC")
	}

	if q.ExcludeID != nil {
		db = db.Where("id <> ?", *q.ExcludeID)
	}

	var apps []models.Appointment
	if err := db.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (t *gormTx) ListSchedule(ctx context.Context, f domain.ScheduleFilter) ([]models.Appointment, error) {
	db := t.db.WithContext(ctx).
		Preload("Customer").
		Preload("Property").
		Preload("Agent")

	if f.AgentID != nil {
		db = db.Where("agent_id = ?", *f.AgentID)
	}

	if f.Search != "" {
		like := "%" + f.Search + "%"
		db = db.Where("notes ILIKE ? OR CAST(id AS TEXT) ILIKE ?", like, like)
	}
	if f.From != nil {
		db = db.Where("starts_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("starts_at < ?", *f.To)
	}

	column, desc := domain.ParseOrderBy(f.OrderBy)

	var apps []models.Appointment
	if err := db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (t *gormTx) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Create(ap).Error
}

func (t *gormTx) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	return t.db.WithContext(ctx).Omit(clause.Associations).Save(ap).Error
}

func (t *gormTx) DeleteAppointment(ctx context.Context, id, agentID uuid.UUID) error {
	res := t.db.WithContext(ctx).
		Where("id = ? AND agent_id = ?", id, agentID).
		Delete(&models.Appointment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.NotFound("appointment_not_found", "Appointment not found.")
	}
	return nil
}

func advisoryLock(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).
		Error
}

// translate maps Postgres failures raised at commit time or by the
// exclusion constraints into the domain error kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01":
			return httperr.Conflict("schedule_conflict", "Overlapping appointment already exists.", nil)
		case "40001", "40P01":
			return httperr.Conflict("concurrent_booking", "Another booking touched the same schedule, please retry.", nil)
		case "23505":
			return httperr.Conflict("duplicate_entry", "Unique constraint failed.", nil)
		case "23503":
			return httperr.NotFound("referenced_row_missing", "A referenced record no longer exists.")
		}
	}
	return err
}

// Compile-time checks
var (
	_ domain.UnitOfWork = (*GormUnitOfWork)(nil)
	_ domain.Tx         = (*gormTx)(nil)
)
