package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/middleware"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type AccountDeleter interface {
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type MeHandler struct {
	db       *gorm.DB
	accounts AccountDeleter
}

func NewMeHandler(db *gorm.DB, accounts AccountDeleter) *MeHandler {
	return &MeHandler{db: db, accounts: accounts}
}

type UpdateMeRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,min=10,max=20"`
}

type meResponse struct {
	User                 userResponse `json:"user"`
	UpcomingAppointments int64        `json:"upcoming_appointments"`
}

func (h *MeHandler) load(c *gin.Context) (*models.User, bool) {
	var user models.User
	err := h.db.WithContext(c.Request.Context()).Take(&user, "id = ?", middleware.UserID(c)).Error
	if err == nil {
		return &user, true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.FromError(c, httperr.Unauthorized("user_not_found", "User no longer exists."))
		return nil, false
	}
	httperr.FromError(c, httperr.Internal("failed_to_get_user", err))
	return nil, false
}

// GetMe returns the signed-in agent and how many scheduled viewings they
// still have ahead of them.
func (h *MeHandler) GetMe(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}

	var upcoming int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.Appointment{}).
		Where("agent_id = ? AND status = ? AND starts_at >= ?", user.ID, string(domain.StatusScheduled), time.Now().UTC()).
		Count(&upcoming).Error; err != nil {
		httperr.FromError(c, httperr.Internal("failed_to_count_appointments", err))
		return
	}

	httpresp.OK(c, meResponse{User: toUserResponse(user), UpcomingAppointments: upcoming})
}

func (h *MeHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, ok := h.load(c)
	if !ok {
		return
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(user).
		Select("first_name", "last_name", "phone").
		Updates(user).Error; err != nil {
		httperr.FromError(c, httperr.Internal("failed_to_update_user", err))
		return
	}

	httpresp.OK(c, gin.H{"user": toUserResponse(user)})
}

// DeleteAccount removes the signed-in user together with their
// appointments. Outstanding tokens stop working on the next request.
func (h *MeHandler) DeleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteUser(c.Request.Context(), middleware.UserID(c)); err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.NoContent(c)
}
