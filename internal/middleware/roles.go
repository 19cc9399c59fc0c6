package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

type UserFinder interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ActiveUser runs after AuthMiddleware. It reloads the token's user so a
// deactivated or deleted account loses access before its token expires,
// and replaces the token's role with the stored one.
func ActiveUser(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindUser(c.Request.Context(), UserID(c))
		if err != nil {
			if httperr.Is(err, httperr.KindNotFound) {
				httperr.UnauthorizedResponse(c, "user_not_found", "User not found.")
			} else {
				httperr.FromError(c, err)
			}
			c.Abort()
			return
		}

		if user.Status != models.UserStatusActive {
			httperr.UnauthorizedResponse(c, "inactive_user", "User is inactive.")
			c.Abort()
			return
		}

		c.Set(ContextUserRole, user.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role
// is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, UserRole(c)) {
			httperr.FromError(c, httperr.Forbidden("insufficient_role", "Insufficient role."))
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserRole returns the role set by AuthMiddleware or ActiveUser.
func UserRole(c *gin.Context) string {
	return c.GetString(ContextUserRole)
}
