package auth

import (
	"fmt"

	"github.com/frahmantamala/gym-management/internal"
)

// Grants maps a resource to the actions a role may perform on it. The "*"
// resource applies to every resource.
type Grants map[Resource][]Action

type actionSet map[Action]struct{}

// PermissionTable is an immutable role -> resource -> actions lookup. It is
// built once and is safe for concurrent readers without locking.
type PermissionTable struct {
	superRole Role
	grants    map[Role]map[Resource]actionSet
}

// NewPermissionTable copies grants into a new table. superRole is allowed
// every action on every resource and needs no entry of its own.
func NewPermissionTable(superRole Role, grants map[Role]Grants) *PermissionTable {
	t := &PermissionTable{
		superRole: superRole,
		grants:    make(map[Role]map[Resource]actionSet, len(grants)),
	}
	for role, byResource := range grants {
		resources := make(map[Resource]actionSet, len(byResource))
		for resource, actions := range byResource {
			set := make(actionSet, len(actions))
			for _, a := range actions {
				set[a] = struct{}{}
			}
			resources[resource] = set
		}
		t.grants[role] = resources
	}
	return t
}

// DefaultPermissionTable returns the grants shipped with the service.
func DefaultPermissionTable() *PermissionTable {
	readOnly := []Action{ActionRead}
	return NewPermissionTable(RoleAdmin, map[Role]Grants{
		RoleBrandManager: {
			ResourceAll:            readOnly,
			ResourceBrand:          {ActionRead, ActionUpdate},
			ResourceStore:          crud,
			ResourceUser:           crud,
			ResourceMember:         crud,
			ResourceCoach:          crud,
			ResourceCourse:         crud,
			ResourceBooking:        crud,
			ResourceCheckIn:        crud,
			ResourceMembershipCard: crud,
		},
		RoleStoreManager: {
			ResourceAll:            readOnly,
			ResourceStore:          {ActionRead, ActionUpdate},
			ResourceUser:           {ActionCreate, ActionRead, ActionUpdate},
			ResourceMember:         crud,
			ResourceCoach:          {ActionCreate, ActionRead, ActionUpdate},
			ResourceCourse:         crud,
			ResourceBooking:        crud,
			ResourceCheckIn:        crud,
			ResourceMembershipCard: crud,
		},
		RoleCoach: {
			ResourceMember:  readOnly,
			ResourceCoach:   {ActionRead, ActionUpdate},
			ResourceCourse:  readOnly,
			ResourceBooking: {ActionRead, ActionUpdate},
			ResourceCheckIn: {ActionCreate, ActionRead},
		},
		RolePersonalTrainer: {
			ResourceMember:         readOnly,
			ResourceCoach:          {ActionRead, ActionUpdate},
			ResourceCourse:         readOnly,
			ResourceBooking:        {ActionCreate, ActionRead, ActionUpdate},
			ResourceCheckIn:        {ActionCreate, ActionRead},
			ResourceMembershipCard: readOnly,
		},
		RoleGroupFitnessInstructor: {
			ResourceMember:  readOnly,
			ResourceCoach:   {ActionRead, ActionUpdate},
			ResourceCourse:  {ActionRead, ActionUpdate},
			ResourceBooking: {ActionRead, ActionUpdate},
			ResourceCheckIn: {ActionCreate, ActionRead},
		},
		RoleStaff: {
			ResourceMember:         {ActionCreate, ActionRead, ActionUpdate},
			ResourceCoach:          readOnly,
			ResourceCourse:         readOnly,
			ResourceBooking:        {ActionCreate, ActionRead, ActionUpdate},
			ResourceCheckIn:        {ActionCreate, ActionRead},
			ResourceMembershipCard: {ActionCreate, ActionRead, ActionUpdate},
		},
	})
}

func (t *PermissionTable) SuperRole() Role {
	return t.superRole
}

// Knows reports whether role has an entry in the table or is the super role.
func (t *PermissionTable) Knows(role Role) bool {
	if role == t.superRole {
		return true
	}
	_, ok := t.grants[role]
	return ok
}

func (t *PermissionTable) allows(role Role, resource Resource, action Action) bool {
	byResource := t.grants[role]
	if set, ok := byResource[ResourceAll]; ok {
		if _, ok := set[action]; ok {
			return true
		}
	}
	set, ok := byResource[resource]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// PermissionResolver answers role/resource/action questions against a
// PermissionTable. Every authorization decision goes through it.
type PermissionResolver struct {
	table *PermissionTable
}

func NewPermissionResolver(table *PermissionTable) *PermissionResolver {
	if table == nil {
		table = DefaultPermissionTable()
	}
	return &PermissionResolver{table: table}
}

func (r *PermissionResolver) Table() *PermissionTable {
	return r.table
}

// CheckPermission returns nil when role may perform action on resource,
// ErrInvalidRole for a role the table does not know, and
// ErrInsufficientPermission otherwise.
func (r *PermissionResolver) CheckPermission(role Role, resource Resource, action Action) error {
	role = NormalizeRole(string(role))

	if role == r.table.superRole {
		return nil
	}
	if !r.table.Knows(role) {
		return internal.ErrInvalidRole.WithMessage(fmt.Sprintf("role %q is not recognised", role))
	}
	if r.table.allows(role, resource, action) {
		return nil
	}
	return internal.ErrInsufficientPermission.WithMessage(
		fmt.Sprintf("role %q may not %s %s", role, action, resource))
}

func (r *PermissionResolver) HasPermission(role Role, resource Resource, action Action) bool {
	return r.CheckPermission(role, resource, action) == nil
}

// CheckAny allows the request when any of roles grants the action. When none
// does, it reports ErrInsufficientPermission if at least one role was known
// and ErrInvalidRole otherwise.
func (r *PermissionResolver) CheckAny(roles []Role, resource Resource, action Action) error {
	known := false
	for _, role := range roles {
		err := r.CheckPermission(role, resource, action)
		if err == nil {
			return nil
		}
		if !isInvalidRole(err) {
			known = true
		}
	}
	if known {
		return internal.ErrInsufficientPermission.WithMessage(
			fmt.Sprintf("none of the assigned roles may %s %s", action, resource))
	}
	return internal.ErrInvalidRole.WithMessage("no recognised role assigned")
}

func isInvalidRole(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.Code == internal.ErrCodeInvalidRole
}
