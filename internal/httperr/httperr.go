package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFoundResponse(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func InternalResponse(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func UnauthorizedResponse(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Status(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes the response for err. Internal errors never leak
// their underlying cause to the client.
func FromError(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		_ = c.Error(err)
		InternalResponse(c, "internal_error", "Unexpected error.")
		return
	}

	if e.Kind == KindInternal || e.Kind == KindDependency {
		_ = c.Error(err)
	}

	body := HTTPError{Code: e.Code, Kind: e.Kind, Message: e.Message, Details: e.Details}
	if e.Kind == KindInternal {
		body.Message = "Unexpected error."
	}
	if e.Kind == KindDependency {
		c.Header("Retry-After", "5")
	}
	c.JSON(Status(e.Kind), body)
}
