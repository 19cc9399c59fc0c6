package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/config"
	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	"github.com/BruksfildServices01/viewing-scheduler/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config

	// checkDomain reports whether an email domain can receive mail.
	checkDomain func(ctx context.Context, email string) bool
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, config: cfg, checkDomain: validators.EmailDomainResolves}
}

// --------- Requests ---------

type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Phone     string `json:"phone" validate:"omitempty,min=10,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
	}
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	email := domain.NormalizeEmail(req.Email)

	if !h.checkDomain(ctx, email) {
		httperr.FromError(c, httperr.Validation("invalid_email_domain", "The email domain does not appear to be valid.", nil))
		return
	}

	var count int64
	if err := h.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		httperr.FromError(c, httperr.Internal("failed_to_check_email", err))
		return
	}
	if count > 0 {
		httperr.FromError(c, httperr.Conflict("email_already_registered", "An account with this email already exists.", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.InternalResponse(c, "failed_to_hash_password", "Could not create account.")
		return
	}

	user := models.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         models.RoleAgent,
		Status:       models.UserStatusActive,
	}

	if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
		httperr.FromError(c, httperr.Internal("failed_to_create_user", err))
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.InternalResponse(c, "failed_to_generate_token", "Could not create account.")
		return
	}

	httpresp.Created(c, authResponse{User: toUserResponse(&user), Token: token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	email := domain.NormalizeEmail(req.Email)

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.UnauthorizedResponse(c, "invalid_credentials", "Invalid email or password.")
			return
		}
		httperr.FromError(c, httperr.Internal("failed_to_load_user", err))
		return
	}

	if user.Status != models.UserStatusActive {
		httperr.UnauthorizedResponse(c, "inactive_user", "This account is inactive.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.UnauthorizedResponse(c, "invalid_credentials", "Invalid email or password.")
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.InternalResponse(c, "failed_to_generate_token", "Could not sign in.")
		return
	}

	httpresp.OK(c, authResponse{User: toUserResponse(&user), Token: token})
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	ttl := h.config.JWTTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}
