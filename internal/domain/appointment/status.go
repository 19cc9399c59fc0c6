package appointment

import (
	"strings"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", httperr.Validation("invalid_status", "Status must be SCHEDULED, COMPLETED or CANCELLED.", nil)
}

// ===============================
// Validations
// ===============================

func CanCancel(current Status) error {
	if current != StatusScheduled {
		return httperr.Validation("invalid_state", "Only scheduled appointments can be cancelled.", nil)
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusScheduled {
		return httperr.Validation("invalid_state", "Only scheduled appointments can be completed.", nil)
	}
	return nil
}

// CanTransition allows staying in the same status or leaving SCHEDULED.
// Terminal statuses are never reopened: a cancelled window no longer
// counts as busy, so reviving it would skip the conflict checks.
func CanTransition(from, to Status) error {
	if from == to {
		return nil
	}
	switch to {
	case StatusCancelled:
		return CanCancel(from)
	case StatusCompleted:
		return CanComplete(from)
	}
	return httperr.Validation("invalid_state", "Appointment cannot be moved back to SCHEDULED.", nil)
}

func InitialStatus() Status {
	return StatusScheduled
}
