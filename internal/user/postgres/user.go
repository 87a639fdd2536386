package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/user"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := r.db.Rebind(`
SELECT id, email, username, name, brand_id, store_id, employee_number, is_active, created_at, updated_at
FROM users
WHERE id = ?`)

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user query: %w", err)
	}
	u.Roles = []string{}
	return &u, nil
}

func (r *Repository) GetRoles(ctx context.Context, userID int64) ([]string, error) {
	roles := []string{}
	query := r.db.Rebind(`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`)
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("get user roles query: %w", err)
	}
	return roles, nil
}
