package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/middleware"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	"github.com/BruksfildServices01/viewing-scheduler/internal/validators"
)

type AuditLogsHandler struct {
	db  *gorm.DB
	loc *time.Location
}

func NewAuditLogsHandler(db *gorm.DB, loc *time.Location) *AuditLogsHandler {
	return &AuditLogsHandler{db: db, loc: loc}
}

type AuditLogsQuery struct {
	Action        string `form:"action" json:"action" validate:"omitempty,oneof=appointment_created appointment_updated appointment_conflict appointment_deleted appointment_cancelled appointment_completed"`
	Entity        string `form:"entity" json:"entity"`
	AppointmentID string `form:"appointment_id" json:"appointment_id" validate:"omitempty,uuid"`
	From          string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Page          int    `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit         int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=200"`
}

type auditLogResponse struct {
	ID        uint            `json:"id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  *uuid.UUID      `json:"entity_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAuditLogResponse(l models.AuditLog) auditLogResponse {
	out := auditLogResponse{
		ID:        l.ID,
		Action:    l.Action,
		Entity:    l.Entity,
		EntityID:  l.EntityID,
		CreatedAt: l.CreatedAt,
	}
	if l.Metadata != "" && json.Valid([]byte(l.Metadata)) {
		out.Metadata = json.RawMessage(l.Metadata)
	}
	return out
}

// List pages through the signed-in agent's audit trail, newest first.
// from and to are calendar days in the display timezone, both inclusive.
func (h *AuditLogsHandler) List(c *gin.Context) {
	var in AuditLogsQuery
	if err := c.ShouldBindQuery(&in); err != nil {
		httperr.BadRequest(c, "invalid_query", "Invalid query parameters.")
		return
	}
	if err := validators.Struct(in); err != nil {
		httperr.FromError(c, err)
		return
	}
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 50
	}

	q := h.db.
		WithContext(c.Request.Context()).
		Model(&models.AuditLog{}).
		Where("agent_id = ?", middleware.UserID(c))

	if in.Action != "" {
		q = q.Where("action = ?", in.Action)
	}
	if in.Entity != "" {
		q = q.Where("entity = ?", in.Entity)
	}
	if in.AppointmentID != "" {
		q = q.Where("entity = ? AND entity_id = ?", "appointment", uuid.MustParse(in.AppointmentID))
	}
	if in.From != "" {
		from, _ := time.ParseInLocation(time.DateOnly, in.From, h.loc)
		q = q.Where("created_at >= ?", from.UTC())
	}
	if in.To != "" {
		to, _ := time.ParseInLocation(time.DateOnly, in.To, h.loc)
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1).UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.FromError(c, httperr.Internal("audit_count_failed", err))
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(in.Limit).
		Offset((in.Page - 1) * in.Limit).
		Find(&logs).Error; err != nil {
		httperr.FromError(c, httperr.Internal("audit_list_failed", err))
		return
	}

	out := make([]auditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toAuditLogResponse(l))
	}
	httpresp.Page(c, out, total, in.Page, in.Limit)
}
