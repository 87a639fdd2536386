package auth

import (
	"context"
	"errors"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	userDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPrincipalByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	return r.load(ctx, "email = ?", email)
}

func (r *Repository) GetPrincipalByID(ctx context.Context, userID int64) (*auth.Principal, error) {
	return r.load(ctx, "id = ?", userID)
}

func (r *Repository) load(ctx context.Context, query string, arg interface{}) (*auth.Principal, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}

	var roles []string
	if err := r.db.WithContext(ctx).
		Model(&userDatamodel.UserRole{}).
		Where("user_id = ?", u.ID).
		Order("role").
		Pluck("role", &roles).Error; err != nil {
		return nil, err
	}

	p := &auth.Principal{
		UserID:       u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		BrandID:      u.BrandID,
		StoreID:      u.StoreID,
		Roles:        roles,
		IsActive:     u.IsActive,
	}
	if u.EmployeeNumber != nil {
		p.EmployeeNumber = *u.EmployeeNumber
	}
	return p, nil
}
