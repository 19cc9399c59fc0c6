package appointment

import (
	"time"

	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// SetStatus applies a status patch, stamping the matching timestamp.
func SetStatus(ap *models.Appointment, to Status, now time.Time) error {
	from := Status(ap.Status)
	if from == to {
		return nil
	}
	if err := CanTransition(from, to); err != nil {
		return err
	}
	if to == StatusCancelled {
		return Cancel(ap, now)
	}
	return Complete(ap, now)
}
