package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type ResourceKind string

const (
	ResourceAgent    ResourceKind = "agent"
	ResourceCustomer ResourceKind = "customer"
)

// Window returns the busy window ap occupies for this kind of resource.
func (k ResourceKind) Window(ap *models.Appointment) BusyInterval {
	if k == ResourceCustomer {
		return CustomerWindow(ap)
	}
	return AgentWindow(ap)
}

type ConflictChecker struct{}

// FindConflict returns the first active appointment of the resource whose
// window overlaps window, or nil. The caller must hold the resource lock.
func (ConflictChecker) FindConflict(
	ctx context.Context,
	tx Tx,
	kind ResourceKind,
	resourceID uuid.UUID,
	window BusyInterval,
	excludeID *uuid.UUID,
) (*models.Appointment, error) {

	candidates, err := tx.ListActiveAppointments(ctx, ActiveQuery{
		Kind:       kind,
		ResourceID: resourceID,
		EndsAfter:  window.Start,
		ExcludeID:  excludeID,
	})
	if err != nil {
		return nil, err
	}

	return FirstOverlap(kind, candidates, window, excludeID), nil
}

// FirstOverlap scans apps for an active appointment whose kind window
// overlaps window.
func FirstOverlap(
	kind ResourceKind,
	apps []models.Appointment,
	window BusyInterval,
	excludeID *uuid.UUID,
) *models.Appointment {

	for i := range apps {
		ap := &apps[i]
		if excludeID != nil && ap.ID == *excludeID {
			continue
		}
		if Status(ap.Status) == StatusCancelled {
			continue
		}
		if Overlaps(kind.Window(ap), window) {
			return ap
		}
	}
	return nil
}

// ConflictError describes the appointment blocking kind's window.
func ConflictError(kind ResourceKind, blocking *models.Appointment) error {
	w := kind.Window(blocking)
	details := &httperr.ConflictDetails{
		Resource:      string(kind),
		AppointmentID: blocking.ID,
		PropertyTitle: blocking.Property.Title,
		Start:         w.Start,
		End:           w.End,
	}

	if kind == ResourceCustomer {
		details.AgentName = blocking.Agent.FullName()
		return httperr.Conflict("customer_conflict", fmt.Sprintf(
			"Customer already has an appointment from %s to %s for property: %s with agent: %s",
			w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339),
			details.PropertyTitle, details.AgentName,
		), details)
	}

	return httperr.Conflict("agent_conflict", fmt.Sprintf(
		"Agent has a conflicting appointment from %s to %s for property: %s",
		w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339),
		details.PropertyTitle,
	), details)
}
