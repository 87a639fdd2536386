package auth

import (
	"fmt"
	"strings"
)

// Role identifies a set of grants in the permission table.
type Role string

const (
	RoleAdmin                  Role = "admin"
	RoleBrandManager           Role = "brand_manager"
	RoleStoreManager           Role = "store_manager"
	RoleCoach                  Role = "coach"
	RolePersonalTrainer        Role = "personal_trainer"
	RoleGroupFitnessInstructor Role = "group_fitness_instructor"
	RoleStaff                  Role = "staff"
)

var roleAliases = map[string]Role{
	"super_admin": RoleAdmin,
	"super-admin": RoleAdmin,
	"superadmin":  RoleAdmin,
}

var validRoles = []Role{
	RoleAdmin,
	RoleBrandManager,
	RoleStoreManager,
	RoleCoach,
	RolePersonalTrainer,
	RoleGroupFitnessInstructor,
	RoleStaff,
}

var coachRoles = []Role{RoleCoach, RolePersonalTrainer, RoleGroupFitnessInstructor}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsCoach reports whether the role belongs to the coach family.
func (r Role) IsCoach() bool {
	for _, candidate := range coachRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// NormalizeRole lowercases and trims raw input and resolves aliases. The
// result is not guaranteed to be valid.
func NormalizeRole(value string) Role {
	v := strings.ToLower(strings.TrimSpace(value))
	if alias, ok := roleAliases[v]; ok {
		return alias
	}
	return Role(v)
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	r := NormalizeRole(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q", value)
	}
	return r, nil
}

// Resource is a protected entity type.
type Resource string

const (
	ResourceAll            Resource = "*"
	ResourceBrand          Resource = "brand"
	ResourceStore          Resource = "store"
	ResourceUser           Resource = "user"
	ResourceMember         Resource = "member"
	ResourceCoach          Resource = "coach"
	ResourceCourse         Resource = "course"
	ResourceBooking        Resource = "booking"
	ResourceCheckIn        Resource = "checkin"
	ResourceMembershipCard Resource = "membership_card"
)

var protectedResources = []Resource{
	ResourceBrand,
	ResourceStore,
	ResourceUser,
	ResourceMember,
	ResourceCoach,
	ResourceCourse,
	ResourceBooking,
	ResourceCheckIn,
	ResourceMembershipCard,
}

func (r Resource) String() string {
	return string(r)
}

// Resources lists every concrete resource, excluding the wildcard.
func Resources() []Resource {
	return append([]Resource(nil), protectedResources...)
}

// Actions lists the CRUD verbs in a stable order.
func Actions() []Action {
	return append([]Action(nil), crud...)
}

// Action is one of the four CRUD verbs.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var crud = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

func (a Action) String() string {
	return string(a)
}

func (a Action) IsValid() bool {
	for _, candidate := range crud {
		if candidate == a {
			return true
		}
	}
	return false
}
