package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/middleware"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// AdminHandler manages staff accounts. Admin access to appointments and
// properties lives on AppointmentHandler and PropertyHandler.
type AdminHandler struct {
	users UserDirectory
	log   *zap.Logger
}

func NewAdminHandler(users UserDirectory, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, log: log}
}

type SetUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		httperr.FromError(c, httperr.Internal("failed_to_list_users", err))
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	httpresp.List(c, out)
}

// SetUserStatus activates or deactivates an account. Deactivation takes
// effect on the user's next request.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SetUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	adminID := middleware.UserID(c)
	if id == adminID && req.Status == models.UserStatusInactive {
		httperr.FromError(c, httperr.Forbidden("cannot_deactivate_self", "Admins cannot deactivate their own account."))
		return
	}

	user, err := h.users.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	h.log.Info("user status changed",
		zap.String("user_id", id.String()),
		zap.String("status", req.Status),
		zap.String("admin_id", adminID.String()),
	)
	httpresp.OK(c, toUserResponse(user))
}

// DeleteUser removes another account and its appointments. Admins remove
// their own account through DELETE /me.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	adminID := middleware.UserID(c)
	if id == adminID {
		httperr.FromError(c, httperr.Forbidden("cannot_delete_self", "Use DELETE /api/me to remove your own account."))
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		httperr.FromError(c, err)
		return
	}

	h.log.Info("user deleted", zap.String("user_id", id.String()), zap.String("admin_id", adminID.String()))
	httpresp.NoContent(c)
}
