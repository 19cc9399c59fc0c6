package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type userStore struct {
	users   map[uuid.UUID]models.User
	deleted []uuid.UUID
}

func newUserStore(users ...models.User) *userStore {
	s := &userStore{users: map[uuid.UUID]models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userStore) ListUsers(context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *userStore) SetStatus(_ context.Context, id uuid.UUID, status string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, httperr.NotFound("user_not_found", "User not found.")
	}
	u.Status = status
	s.users[id] = u
	return &u, nil
}

func (s *userStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return httperr.NotFound("user_not_found", "User not found.")
	}
	delete(s.users, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func adminRouter(h *AdminHandler, me *MeHandler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authenticated(userID, models.RoleAdmin))
	r.GET("/admin/users", h.ListUsers)
	r.PATCH("/admin/users/:id/status", h.SetUserStatus)
	r.DELETE("/admin/users/:id", h.DeleteUser)
	r.DELETE("/me", me.DeleteAccount)
	return r
}

func TestSetUserStatus(t *testing.T) {
	admin := models.User{ID: uuid.New(), Role: models.RoleAdmin, Status: models.UserStatusActive}
	agent := models.User{ID: uuid.New(), Role: models.RoleAgent, Status: models.UserStatusActive}
	store := newUserStore(admin, agent)
	r := adminRouter(NewAdminHandler(store, zap.NewNop()), NewMeHandler(nil, store), admin.ID)

	w := send(r, http.MethodPatch, "/admin/users/"+agent.ID.String()+"/status", `{"status":"INACTIVE"}`)
	if w.Code != http.StatusOK || store.users[agent.ID].Status != models.UserStatusInactive {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var body userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != models.UserStatusInactive {
		t.Fatalf("unexpected body %+v", body)
	}

	if w := send(r, http.MethodPatch, "/admin/users/"+agent.ID.String()+"/status", `{"status":"SUSPENDED"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d", w.Code)
	}
	if w := send(r, http.MethodPatch, "/admin/users/"+uuid.NewString()+"/status", `{"status":"ACTIVE"}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing user: %d", w.Code)
	}
}

func TestAdminCannotLockThemselvesOut(t *testing.T) {
	admin := models.User{ID: uuid.New(), Role: models.RoleAdmin, Status: models.UserStatusActive}
	store := newUserStore(admin)
	r := adminRouter(NewAdminHandler(store, zap.NewNop()), NewMeHandler(nil, store), admin.ID)

	w := send(r, http.MethodPatch, "/admin/users/"+admin.ID.String()+"/status", `{"status":"INACTIVE"}`)
	if w.Code != http.StatusForbidden || decodeError(t, w).Code != "cannot_deactivate_self" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodDelete, "/admin/users/"+admin.ID.String(), "")
	if w.Code != http.StatusForbidden || decodeError(t, w).Code != "cannot_delete_self" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if store.users[admin.ID].Status != models.UserStatusActive {
		t.Fatal("admin status changed")
	}
}

func TestDeleteAccounts(t *testing.T) {
	admin := models.User{ID: uuid.New(), Role: models.RoleAdmin}
	agent := models.User{ID: uuid.New(), Role: models.RoleAgent}
	store := newUserStore(admin, agent)
	r := adminRouter(NewAdminHandler(store, zap.NewNop()), NewMeHandler(nil, store), admin.ID)

	if w := send(r, http.MethodDelete, "/admin/users/"+agent.ID.String(), ""); w.Code != http.StatusNoContent {
		t.Fatalf("admin delete: status %d", w.Code)
	}
	if w := send(r, http.MethodDelete, "/me", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete own account: status %d", w.Code)
	}
	if len(store.users) != 0 || len(store.deleted) != 2 {
		t.Fatalf("remaining users %+v", store.users)
	}
	if w := send(r, http.MethodDelete, "/me", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", w.Code)
	}
}

type resolverFunc func(ctx context.Context, postcode string) (geo.Address, error)

func (f resolverFunc) ResolveAddress(ctx context.Context, postcode string) (geo.Address, error) {
	return f(ctx, postcode)
}

func propertyRouter(h *PropertyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/properties", h.Create)
	r.POST("/properties/:id/photo", h.UploadPhoto)
	return r
}

func TestCreatePropertyUnknownPostcode(t *testing.T) {
	resolver := resolverFunc(func(context.Context, string) (geo.Address, error) {
		return geo.Address{}, httperr.NotFound("postcode_not_found", "Postcode not found.")
	})
	r := propertyRouter(NewPropertyHandler(nil, resolver, nil, zap.NewNop()))

	w := send(r, http.MethodPost, "/properties", `{"title":"Flat 1","postcode":"ZZ99 9ZZ"}`)
	if w.Code != http.StatusNotFound || decodeError(t, w).Code != "postcode_not_found" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}

func TestCreatePropertyGeoOutage(t *testing.T) {
	resolver := resolverFunc(func(context.Context, string) (geo.Address, error) {
		return geo.Address{}, httperr.Dependency("geo_timeout", "Geo service timed out.", context.DeadlineExceeded)
	})
	r := propertyRouter(NewPropertyHandler(nil, resolver, nil, zap.NewNop()))

	w := send(r, http.MethodPost, "/properties", `{"title":"Flat 1","postcode":"JE2 3AB"}`)
	if w.Code != http.StatusServiceUnavailable || w.Header().Get("Retry-After") == "" {
		t.Fatalf("status %d headers %v", w.Code, w.Header())
	}
}

func TestUploadPhotoWithoutStorage(t *testing.T) {
	r := propertyRouter(NewPropertyHandler(nil, nil, nil, zap.NewNop()))

	w := send(r, http.MethodPost, "/properties/"+uuid.NewString()+"/photo", "")
	if w.Code != http.StatusNotImplemented || decodeError(t, w).Code != "photo_storage_disabled" {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
}
