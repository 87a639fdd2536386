package coach

import (
	"time"

	"github.com/frahmantamala/gym-management/internal/auth"
	coachDatamodel "github.com/frahmantamala/gym-management/internal/core/datamodel/coach"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	SpecialtyPersonalTraining = "personal_training"
	SpecialtyGroupFitness     = "group_fitness"
)

// Specialization is the kind of coaching a route requires.
type Specialization string

const (
	SpecializationPersonal Specialization = "personal"
	SpecializationGroup    Specialization = "group"
)

type Coach struct {
	ID             int64       `json:"id"`
	BrandID        int64       `json:"brand_id"`
	StoreID        int64       `json:"store_id"`
	UserID         *int64      `json:"user_id,omitempty"`
	EmployeeNumber string      `json:"employee_number"`
	Name           string      `json:"name"`
	Specialties    []string    `json:"specialties"`
	Roles          []auth.Role `json:"roles"`
	Status         string      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (c *Coach) IsActive() bool {
	return c.Status == StatusActive
}

func (c *Coach) HasSpecialty(tag string) bool {
	for _, s := range c.Specialties {
		if s == tag {
			return true
		}
	}
	return false
}

func (c *Coach) hasRole(role auth.Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPersonalTrainer reports whether the coach is tagged for personal training.
func (c *Coach) IsPersonalTrainer() bool {
	return c.HasSpecialty(SpecialtyPersonalTraining)
}

// CanManagePersonalTraining requires an active coach whose user holds the
// personal_trainer role.
func (c *Coach) CanManagePersonalTraining() bool {
	return c.IsActive() && c.hasRole(auth.RolePersonalTrainer)
}

func (c *Coach) IsGroupInstructor() bool {
	return c.HasSpecialty(SpecialtyGroupFitness)
}

func (c *Coach) CanManageGroupClass() bool {
	return c.IsActive() && c.hasRole(auth.RoleGroupFitnessInstructor)
}

// Qualifies reports whether the coach holds both the tag and the capability
// for kind. Unknown kinds never qualify.
func (c *Coach) Qualifies(kind Specialization) bool {
	switch kind {
	case SpecializationPersonal:
		return c.IsPersonalTrainer() && c.CanManagePersonalTraining()
	case SpecializationGroup:
		return c.IsGroupInstructor() && c.CanManageGroupClass()
	default:
		return false
	}
}

func (c *Coach) TenantRef() auth.TenantRef {
	return auth.StoreRef(c.BrandID, c.StoreID)
}

func ToDataModel(c *Coach) *coachDatamodel.Coach {
	return &coachDatamodel.Coach{
		ID:             c.ID,
		BrandID:        c.BrandID,
		StoreID:        c.StoreID,
		UserID:         c.UserID,
		EmployeeNumber: c.EmployeeNumber,
		Name:           c.Name,
		Specialties:    c.Specialties,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// FromDataModel builds a Coach from its row and the linked user's role names.
func FromDataModel(row *coachDatamodel.Coach, roles []string) *Coach {
	c := &Coach{
		ID:             row.ID,
		BrandID:        row.BrandID,
		StoreID:        row.StoreID,
		UserID:         row.UserID,
		EmployeeNumber: row.EmployeeNumber,
		Name:           row.Name,
		Specialties:    row.Specialties,
		Status:         row.Status,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if c.Specialties == nil {
		c.Specialties = []string{}
	}
	c.Roles = make([]auth.Role, 0, len(roles))
	for _, r := range roles {
		c.Roles = append(c.Roles, auth.NormalizeRole(r))
	}
	return c
}
