package httperr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of failure categories returned by the scheduling
// core and the handlers around it.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindDependency   Kind = "dependency_error"
	KindValidation   Kind = "validation_error"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConflictDetails identifies the booking that blocks a candidate window.
type ConflictDetails struct {
	Resource      string    `json:"resource"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PropertyTitle string    `json:"property_title"`
	AgentName     string    `json:"agent_name,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string, details *ConflictDetails) *Error {
	e := &Error{Kind: KindConflict, Code: code, Message: message}
	if details != nil {
		e.Details = details
	}
	return e
}

func Dependency(code, message string, err error) *Error {
	return &Error{Kind: KindDependency, Code: code, Message: message, Err: err}
}

func Validation(code, message string, details any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Details: details}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

func Internal(code string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: "internal error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
