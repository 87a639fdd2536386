package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/coach"
	coachDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/coach"
	userDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type CoachRepository struct {
	db *gorm.DB
}

func NewCoachRepository(db *gorm.DB) coach.RepositoryAPI {
	return &CoachRepository{db: db}
}

func (r *CoachRepository) GetByID(ctx context.Context, id int64) (*coach.Coach, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *CoachRepository) GetByEmployeeNumber(ctx context.Context, brandID int64, employeeNumber string) (*coach.Coach, error) {
	return r.first(ctx, "brand_id = ? AND employee_number = ?", brandID, employeeNumber)
}

func (r *CoachRepository) List(ctx context.Context, scope auth.ScopeFilter, limit, offset int) ([]*coach.Coach, error) {
	var rows []*coachDatamodel.Coach
	err := scope.Apply(r.db.WithContext(ctx).Model(&coachDatamodel.Coach{})).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*coach.Coach, 0, len(rows))
	for _, row := range rows {
		roles, err := r.rolesFor(ctx, row.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, coach.FromDataModel(row, roles))
	}
	return out, nil
}

func (r *CoachRepository) first(ctx context.Context, query string, args ...interface{}) (*coach.Coach, error) {
	var row coachDatamodel.Coach
	if err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCoachNotFound
		}
		return nil, err
	}

	roles, err := r.rolesFor(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	return coach.FromDataModel(&row, roles), nil
}

// rolesFor returns the linked user's roles. Coaches without a user account
// hold no roles.
func (r *CoachRepository) rolesFor(ctx context.Context, userID *int64) ([]string, error) {
	if userID == nil {
		return nil, nil
	}
	var roles []string
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.UserRole{}).
		Where("user_id = ?", *userID).
		Order("role").
		Pluck("role", &roles).Error
	return roles, err
}
