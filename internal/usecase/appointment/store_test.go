package appointment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// memStore is an in-memory UnitOfWork. Writes are staged per transaction
// and applied on commit; LockResource blocks on a per-key semaphore held
// until the transaction ends, like pg_advisory_xact_lock.
type memStore struct {
	mu           sync.Mutex
	properties   map[uuid.UUID]models.Property
	offices      map[string]models.Office
	agents       map[uuid.UUID]models.User
	customers    map[uuid.UUID]models.Customer
	appointments map[uuid.UUID]models.Appointment

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	txCount atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{
		properties:   map[uuid.UUID]models.Property{},
		offices:      map[string]models.Office{},
		agents:       map[uuid.UUID]models.User{},
		customers:    map[uuid.UUID]models.Customer{},
		appointments: map[uuid.UUID]models.Appointment{},
		locks:        map[string]chan struct{}{},
	}
}

func (s *memStore) addProperty(title string, lat, lon float64) models.Property {
	p := models.Property{ID: uuid.New(), Title: title, Latitude: lat, Longitude: lon}
	s.mu.Lock()
	s.properties[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *memStore) addOffice(name string, lat, lon float64) {
	s.mu.Lock()
	s.offices[name] = models.Office{ID: uuid.New(), Name: name, Latitude: lat, Longitude: lon}
	s.mu.Unlock()
}

func (s *memStore) addAgent(first, last string) uuid.UUID {
	u := models.User{ID: uuid.New(), FirstName: first, LastName: last, Role: models.RoleAgent}
	s.mu.Lock()
	s.agents[u.ID] = u
	s.mu.Unlock()
	return u.ID
}

func (s *memStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

func (s *memStore) customerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customers)
}

func (s *memStore) appointment(id uuid.UUID) (models.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ap, ok := s.appointments[id]
	return ap, ok
}

func (s *memStore) lockChan(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txCount.Add(1)

	tx := &memTx{
		store:     s,
		held:      map[string]chan struct{}{},
		customers: map[uuid.UUID]models.Customer{},
		upserts:   map[uuid.UUID]models.Appointment{},
		deletes:   map[uuid.UUID]bool{},
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for id, c := range tx.customers {
		s.customers[id] = c
	}
	for id, ap := range tx.upserts {
		s.appointments[id] = ap
	}
	for id := range tx.deletes {
		delete(s.appointments, id)
	}
	s.mu.Unlock()
	return nil
}

type memTx struct {
	store *memStore
	held  map[string]chan struct{}

	customers map[uuid.UUID]models.Customer
	upserts   map[uuid.UUID]models.Appointment
	deletes   map[uuid.UUID]bool
}

func (t *memTx) release() {
	for _, ch := range t.held {
		<-ch
	}
}

func (t *memTx) LockResource(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := t.store.lockChan(key)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) GetProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	p, ok := t.store.properties[id]
	if !ok {
		return nil, httperr.NotFound("property_not_found", "Property not found.")
	}
	return &p, nil
}

func (t *memTx) GetOfficeByName(_ context.Context, name string) (*models.Office, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	o, ok := t.store.offices[name]
	if !ok {
		return nil, httperr.NotFound("office_not_found", "Main office not found.")
	}
	return &o, nil
}

func (t *memTx) FindOrCreateCustomer(_ context.Context, c *models.Customer) (*models.Customer, error) {
	email := domain.NormalizeEmail(c.Email)
	for _, existing := range t.customers {
		if existing.Email == email {
			return &existing, nil
		}
	}

	t.store.mu.Lock()
	for _, existing := range t.store.customers {
		if existing.Email == email {
			t.store.mu.Unlock()
			return &existing, nil
		}
	}
	t.store.mu.Unlock()

	created := *c
	created.ID = uuid.New()
	created.Email = email
	t.customers[created.ID] = created
	return &created, nil
}

// snapshot returns committed appointments overlaid with this
// transaction's staged writes.
func (t *memTx) snapshot() map[uuid.UUID]models.Appointment {
	t.store.mu.Lock()
	out := make(map[uuid.UUID]models.Appointment, len(t.store.appointments))
	for id, ap := range t.store.appointments {
		out[id] = ap
	}
	t.store.mu.Unlock()

	for id, ap := range t.upserts {
		out[id] = ap
	}
	for id := range t.deletes {
		delete(out, id)
	}
	return out
}

func (t *memTx) hydrate(ap models.Appointment) models.Appointment {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	ap.Property = t.store.properties[ap.PropertyID]
	ap.Agent = t.store.agents[ap.AgentID]
	if c, ok := t.customers[ap.CustomerID]; ok {
		ap.Customer = c
	} else {
		ap.Customer = t.store.customers[ap.CustomerID]
	}
	return ap
}

func (t *memTx) GetAppointmentOwner(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	ap, ok := t.snapshot()[id]
	if !ok {
		return uuid.Nil, httperr.NotFound("appointment_not_found", "Appointment not found.")
	}
	return ap.AgentID, nil
}

func (t *memTx) GetAppointmentForAgent(_ context.Context, id, agentID uuid.UUID) (*models.Appointment, error) {
	ap, ok := t.snapshot()[id]
	if !ok || ap.AgentID != agentID {
		return nil, httperr.NotFound("appointment_not_found", "Appointment not found.")
	}
	return &ap, nil
}

func (t *memTx) ListActiveAppointments(_ context.Context, q domain.ActiveQuery) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, ap := range t.snapshot() {
		if ap.Status == string(domain.StatusCancelled) {
			continue
		}
		if q.ExcludeID != nil && ap.ID == *q.ExcludeID {
			continue
		}
		owner := ap.AgentID
		if q.Kind == domain.ResourceCustomer {
			owner = ap.CustomerID
		}
		if owner != q.ResourceID || !q.Kind.Window(&ap).End.After(q.EndsAfter) {
			continue
		}
		out = append(out, t.hydrate(ap))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (t *memTx) ListSchedule(_ context.Context, f domain.ScheduleFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, ap := range t.snapshot() {
		if f.AgentID != nil && ap.AgentID != *f.AgentID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(ap.Notes), strings.ToLower(f.Search)) {
			continue
		}
		if f.From != nil && ap.StartsAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !ap.StartsAt.Before(*f.To) {
			continue
		}
		out = append(out, t.hydrate(ap))
	}

	col, desc := domain.ParseOrderBy(f.OrderBy)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		switch col {
		case "distance_km":
			return a.DistanceKm < b.DistanceKm
		case "travel_duration_min":
			return a.TravelDurationMin < b.TravelDurationMin
		default:
			return a.StartsAt.Before(b.StartsAt)
		}
	})
	return out, nil
}

func (t *memTx) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	if ap.ID == uuid.Nil {
		ap.ID = uuid.New()
	}
	stored := *ap
	stored.Agent, stored.Customer, stored.Property = models.User{}, models.Customer{}, models.Property{}
	t.upserts[ap.ID] = stored
	return nil
}

func (t *memTx) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	return t.CreateAppointment(ctx, ap)
}

func (t *memTx) DeleteAppointment(_ context.Context, id, agentID uuid.UUID) error {
	ap, ok := t.snapshot()[id]
	if !ok || ap.AgentID != agentID {
		return httperr.NotFound("appointment_not_found", "Appointment not found.")
	}
	delete(t.upserts, id)
	t.deletes[id] = true
	return nil
}

var _ domain.UnitOfWork = (*memStore)(nil)

// assertNoOverlaps checks that no two committed, non-cancelled
// appointments of the same agent or customer overlap.
func assertNoOverlaps(t *testing.T, s *memStore) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []models.Appointment
	for _, ap := range s.appointments {
		if ap.Status != string(domain.StatusCancelled) {
			active = append(active, ap)
		}
	}

	for i := range active {
		for j := i + 1; j < len(active); j++ {
			a, b := &active[i], &active[j]
			if a.AgentID == b.AgentID && domain.Overlaps(domain.AgentWindow(a), domain.AgentWindow(b)) {
				t.Errorf("agent double-booked: %s and %s", a.ID, b.ID)
			}
			if a.CustomerID == b.CustomerID && domain.Overlaps(domain.CustomerWindow(a), domain.CustomerWindow(b)) {
				t.Errorf("customer double-booked: %s and %s", a.ID, b.ID)
			}
		}
	}
}
