package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/imaging"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	"github.com/BruksfildServices01/viewing-scheduler/internal/storage"
)

const maxPhotoBytes = 10 << 20

type PropertyHandler struct {
	db     *gorm.DB
	geo    geo.AddressResolver
	photos storage.ObjectStore
	log    *zap.Logger
}

// NewPropertyHandler accepts a nil photos store, in which case uploads are
// rejected.
func NewPropertyHandler(db *gorm.DB, resolver geo.AddressResolver, photos storage.ObjectStore, log *zap.Logger) *PropertyHandler {
	return &PropertyHandler{db: db, geo: resolver, photos: photos, log: log}
}

// --------- Requests ---------

type CreatePropertyRequest struct {
	Title    string `json:"title" binding:"required,min=3,max=255"`
	Postcode string `json:"postcode" binding:"required"`
}

type UpdatePropertyRequest struct {
	Title    *string `json:"title,omitempty" binding:"omitempty,min=3,max=255"`
	Postcode *string `json:"postcode,omitempty"`
}

type PropertyResponse struct {
	models.Property
	PhotoURL string `json:"photo_url,omitempty"`
}

func (h *PropertyHandler) response(p models.Property) PropertyResponse {
	out := PropertyResponse{Property: p}
	if p.PhotoKey != "" && h.photos != nil {
		out.PhotoURL = h.photos.URL(p.PhotoKey)
	}
	return out
}

func (h *PropertyHandler) find(c *gin.Context) (*models.Property, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	var p models.Property
	if err := h.db.WithContext(c.Request.Context()).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFoundResponse(c, "property_not_found", "Property not found.")
			return nil, false
		}
		httperr.InternalResponse(c, "failed_to_get_property", "Could not load property.")
		return nil, false
	}
	return &p, true
}

// --------- Handlers ---------

func (h *PropertyHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.WithContext(c.Request.Context())
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(postcode) LIKE ? OR LOWER(parish) LIKE ?", like, like, like)
	}

	var props []models.Property
	if err := q.Order("title ASC").Find(&props).Error; err != nil {
		httperr.InternalResponse(c, "failed_to_list_properties", "Could not list properties.")
		return
	}

	out := make([]PropertyResponse, 0, len(props))
	for _, p := range props {
		out = append(out, h.response(p))
	}
	httpresp.List(c, out)
}

func (h *PropertyHandler) Get(c *gin.Context) {
	p, ok := h.find(c)
	if !ok {
		return
	}
	httpresp.OK(c, h.response(*p))
}

func (h *PropertyHandler) Create(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	addr, err := h.geo.ResolveAddress(c.Request.Context(), req.Postcode)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	p := models.Property{
		Title:     strings.TrimSpace(req.Title),
		Postcode:  addr.Postcode,
		Parish:    addr.Region,
		Latitude:  addr.Coordinates.Latitude,
		Longitude: addr.Coordinates.Longitude,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&p).Error; err != nil {
		httperr.InternalResponse(c, "failed_to_create_property", "Could not create property.")
		return
	}

	httpresp.Created(c, h.response(p))
}

// Update re-resolves coordinates when the postcode changes. Appointments
// already booked keep the travel figures computed when they were saved.
func (h *PropertyHandler) Update(c *gin.Context) {
	p, ok := h.find(c)
	if !ok {
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}

	if req.Postcode != nil && geo.NormalizePostcode(*req.Postcode) != geo.NormalizePostcode(p.Postcode) {
		addr, err := h.geo.ResolveAddress(c.Request.Context(), *req.Postcode)
		if err != nil {
			httperr.FromError(c, err)
			return
		}
		p.Postcode = addr.Postcode
		p.Parish = addr.Region
		p.Latitude = addr.Coordinates.Latitude
		p.Longitude = addr.Coordinates.Longitude
	}

	if err := h.db.WithContext(c.Request.Context()).Save(p).Error; err != nil {
		httperr.InternalResponse(c, "failed_to_update_property", "Could not update property.")
		return
	}

	httpresp.OK(c, h.response(*p))
}

// Delete refuses while the property still has scheduled viewings.
func (h *PropertyHandler) Delete(c *gin.Context) {
	h.remove(c, false)
}

// ForceDelete removes the property together with every appointment booked
// against it.
func (h *PropertyHandler) ForceDelete(c *gin.Context) {
	h.remove(c, true)
}

// remove locks the property row so a booking racing the delete either
// lands first and is counted, or fails its foreign key check afterwards.
func (h *PropertyHandler) remove(c *gin.Context, force bool) {
	p, ok := h.find(c)
	if !ok {
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&models.Property{}, "id = ?", p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("property_not_found", "Property not found.")
			}
			return httperr.Internal("failed_to_delete_property", err)
		}

		if !force {
			var scheduled int64
			if err := tx.Model(&models.Appointment{}).
				Where("property_id = ? AND status = ?", p.ID, string(domain.StatusScheduled)).
				Count(&scheduled).Error; err != nil {
				return httperr.Internal("failed_to_delete_property", err)
			}
			if scheduled > 0 {
				return httperr.Conflict("property_has_appointments",
					fmt.Sprintf("Property has %d scheduled appointment(s).", scheduled), nil)
			}
		}

		if err := tx.Delete(&models.Property{}, "id = ?", p.ID).Error; err != nil {
			return httperr.Internal("failed_to_delete_property", err)
		}
		return nil
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	if force {
		h.log.Info("property force deleted", zap.String("property_id", p.ID.String()))
	}

	if p.PhotoKey != "" && h.photos != nil {
		if err := h.photos.Delete(c.Request.Context(), p.PhotoKey); err != nil {
			h.log.Warn("photo cleanup failed", zap.String("key", p.PhotoKey), zap.Error(err))
		}
	}

	httpresp.NoContent(c)
}

// UploadPhoto accepts a multipart "photo" field, stores it as a resized
// WebP and replaces any previous photo.
func (h *PropertyHandler) UploadPhoto(c *gin.Context) {
	if h.photos == nil {
		httperr.Write(c, http.StatusNotImplemented, "photo_storage_disabled", "Photo storage is not configured.")
		return
	}

	p, ok := h.find(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	fh, err := c.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "missing_photo", "A photo file is required.")
		return
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_photo", "Could not read photo.")
		return
	}
	defer f.Close()

	body, err := imaging.ToWebP(f, imaging.MaxWidth, 80)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	key := fmt.Sprintf("properties/%s/%s.webp", p.ID, uuid.NewString())
	if err := h.photos.Put(c.Request.Context(), key, body, imaging.ContentType); err != nil {
		httperr.FromError(c, httperr.Dependency("photo_upload_failed", "Could not store photo.", err))
		return
	}

	previous := p.PhotoKey
	p.PhotoKey = key
	if err := h.db.WithContext(c.Request.Context()).Model(p).Update("photo_key", key).Error; err != nil {
		httperr.InternalResponse(c, "failed_to_update_property", "Could not update property.")
		return
	}

	if previous != "" {
		if err := h.photos.Delete(c.Request.Context(), previous); err != nil {
			h.log.Warn("photo cleanup failed", zap.String("key", previous), zap.Error(err))
		}
	}

	httpresp.OK(c, h.response(*p))
}
