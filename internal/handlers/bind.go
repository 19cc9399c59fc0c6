package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/validators"
)

// bindJSON decodes the body into req and checks its `validate` tags,
// writing the error response itself when either step fails.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return false
	}
	if err := validators.Struct(req); err != nil {
		httperr.FromError(c, err)
		return false
	}
	return true
}
