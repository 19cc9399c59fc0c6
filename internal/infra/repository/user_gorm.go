package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// GormUsers reads and manages staff accounts.
type GormUsers struct {
	db *gorm.DB
}

func NewGormUsers(db *gorm.DB) *GormUsers {
	return &GormUsers{db: db}
}

func (r *GormUsers) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("user_not_found", "User not found.")
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUsers) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormUsers) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.User, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, httperr.NotFound("user_not_found", "User not found.")
	}
	return r.FindUser(ctx, id)
}

// DeleteUser removes an account. Its appointments go with it through the
// foreign key cascade; the agent lock keeps a booking from landing on the
// account while it is being removed.
func (r *GormUsers) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := advisoryLock(ctx, db, domain.AgentLockKey(id)); err != nil {
			return err
		}

		res := db.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return httperr.NotFound("user_not_found", "User not found.")
		}
		return nil
	})
	return translate(err)
}

// EnsureAdmin promotes the account with u's email to an active admin, or
// creates it from u when no such account exists. The password of an
// existing account is left as it is.
func (r *GormUsers) EnsureAdmin(ctx context.Context, u *models.User) (user *models.User, created bool, err error) {
	email := domain.NormalizeEmail(u.Email)

	err = r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var existing models.User
		err := db.Where("email = ?", email).Take(&existing).Error
		switch {
		case err == nil:
			existing.Role = models.RoleAdmin
			existing.Status = models.UserStatusActive
			if err := db.Model(&existing).Select("role", "status").Updates(&existing).Error; err != nil {
				return err
			}
			user = &existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			fresh := *u
			fresh.Email = email
			fresh.Role = models.RoleAdmin
			fresh.Status = models.UserStatusActive
			if err := db.Create(&fresh).Error; err != nil {
				return err
			}
			user, created = &fresh, true
			return nil
		default:
			return err
		}
	})
	return user, created, translate(err)
}
