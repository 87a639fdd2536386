package user

import (
	"time"

	"github.com/frahmantamala/gym-management/internal/auth"
)

type User struct {
	ID             int64     `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	Username       string    `json:"username" db:"username"`
	Name           string    `json:"name" db:"name"`
	BrandID        int64     `json:"brand_id" db:"brand_id"`
	StoreID        *int64    `json:"store_id,omitempty" db:"store_id"`
	EmployeeNumber *string   `json:"employee_number,omitempty" db:"employee_number"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	Roles          []string  `json:"roles" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (u *User) TenantRef() auth.TenantRef {
	return auth.TenantRef{BrandID: u.BrandID, StoreID: u.StoreID}
}
