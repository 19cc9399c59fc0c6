package appointment

import (
	"errors"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

// conflictMetadata extracts the blocking appointment from a conflict error
// for the audit trail.
func conflictMetadata(err error) any {
	var e *httperr.Error
	if !errors.As(err, &e) {
		return nil
	}
	if d, ok := e.Details.(*httperr.ConflictDetails); ok {
		return d
	}
	return map[string]string{"code": e.Code}
}
