package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	officeuc "github.com/BruksfildServices01/viewing-scheduler/internal/usecase/office"
)

type OfficeHandler struct {
	db     *gorm.DB
	name   string
	ensure *officeuc.EnsureOffice
}

func NewOfficeHandler(db *gorm.DB, name string, ensure *officeuc.EnsureOffice) *OfficeHandler {
	return &OfficeHandler{db: db, name: name, ensure: ensure}
}

type UpdateOfficeRequest struct {
	Postcode string `json:"postcode" binding:"required"`
}

func (h *OfficeHandler) Get(c *gin.Context) {
	var office models.Office
	if err := h.db.WithContext(c.Request.Context()).Where("name = ?", h.name).First(&office).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFoundResponse(c, "office_not_found", "Main office is not configured.")
			return
		}
		httperr.InternalResponse(c, "failed_to_get_office", "Could not load office.")
		return
	}

	httpresp.OK(c, office)
}

// Update moves the main office. Only appointments booked afterwards use
// the new origin.
func (h *OfficeHandler) Update(c *gin.Context) {
	var req UpdateOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	office, err := h.ensure.Execute(c.Request.Context(), h.name, req.Postcode)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, office)
}
