package auth

import (
	"fmt"

	"github.com/frahmantamala/gym-management/internal"
	"gorm.io/gorm"
)

// ScopeKind is how far across the tenant hierarchy a caller can see.
type ScopeKind string

const (
	ScopeNone  ScopeKind = "none"
	ScopeStore ScopeKind = "store"
	ScopeBrand ScopeKind = "brand"
	ScopeAll   ScopeKind = "all"
)

var scopeRank = map[ScopeKind]int{
	ScopeNone:  0,
	ScopeStore: 1,
	ScopeBrand: 2,
	ScopeAll:   3,
}

var roleScopes = map[Role]ScopeKind{
	RoleAdmin:                  ScopeAll,
	RoleBrandManager:           ScopeBrand,
	RoleStoreManager:           ScopeStore,
	RoleCoach:                  ScopeStore,
	RolePersonalTrainer:        ScopeStore,
	RoleGroupFitnessInstructor: ScopeStore,
	RoleStaff:                  ScopeStore,
}

// TenantColumns names the columns that carry tenant ids on a resource's
// table. An empty Store means the resource is brand-level only.
type TenantColumns struct {
	Brand string
	Store string
}

var tenantColumns = map[Resource]TenantColumns{
	ResourceBrand: {Brand: "id"},
	ResourceStore: {Brand: "brand_id", Store: "id"},
	ResourceUser:  {Brand: "brand_id", Store: "store_id"},
}

var defaultTenantColumns = TenantColumns{Brand: "brand_id", Store: "store_id"}

func columnsFor(resource Resource) TenantColumns {
	if cols, ok := tenantColumns[resource]; ok {
		return cols
	}
	return defaultTenantColumns
}

// TenantRef is the tenant placement of one fetched row.
type TenantRef struct {
	BrandID int64
	StoreID *int64
}

// ScopeFilter narrows queries and fetched rows to the caller's tenant scope.
type ScopeFilter struct {
	Kind     ScopeKind
	BrandID  int64
	StoreID  int64
	Resource Resource
	columns  TenantColumns
}

// callerScope picks the widest scope granted by any of the caller's roles.
func callerScope(c *Caller) ScopeKind {
	widest := ScopeNone
	for _, r := range c.Roles {
		kind, ok := roleScopes[r]
		if !ok {
			continue
		}
		if scopeRank[kind] > scopeRank[widest] {
			widest = kind
		}
	}
	return widest
}

// ResolveScopeFilter derives the filter for caller on resource. A caller with
// no recognised role, or without the tenant id its scope needs, gets
// ScopeNone and matches nothing.
func ResolveScopeFilter(c *Caller, resource Resource) ScopeFilter {
	f := ScopeFilter{Kind: ScopeNone, Resource: resource, columns: columnsFor(resource)}
	if c == nil {
		return f
	}

	switch callerScope(c) {
	case ScopeAll:
		f.Kind = ScopeAll
	case ScopeBrand:
		if c.BrandID > 0 {
			f.Kind = ScopeBrand
			f.BrandID = c.BrandID
		}
	case ScopeStore:
		if c.BrandID > 0 && c.StoreID != nil && *c.StoreID > 0 {
			f.Kind = ScopeStore
			f.BrandID = c.BrandID
			f.StoreID = *c.StoreID
		}
	}
	return f
}

// Apply constrains db to rows inside the scope.
func (f ScopeFilter) Apply(db *gorm.DB) *gorm.DB {
	switch f.Kind {
	case ScopeAll:
		return db
	case ScopeBrand:
		return db.Where(fmt.Sprintf("%s = ?", f.columns.Brand), f.BrandID)
	case ScopeStore:
		db = db.Where(fmt.Sprintf("%s = ?", f.columns.Brand), f.BrandID)
		if f.columns.Store != "" {
			db = db.Where(fmt.Sprintf("%s = ?", f.columns.Store), f.StoreID)
		}
		return db
	default:
		return db.Where("1 = 0")
	}
}

// Allows reports whether a fetched row sits inside the scope.
func (f ScopeFilter) Allows(ref TenantRef) bool {
	switch f.Kind {
	case ScopeAll:
		return true
	case ScopeBrand:
		return ref.BrandID == f.BrandID
	case ScopeStore:
		if ref.BrandID != f.BrandID {
			return false
		}
		if f.columns.Store == "" {
			return true
		}
		return ref.StoreID != nil && *ref.StoreID == f.StoreID
	default:
		return false
	}
}

// EnsureInScope re-checks a row fetched by id. Rows outside the caller's
// scope yield ErrForbidden; callers report missing rows as NotFound before
// calling this.
func EnsureInScope(c *Caller, resource Resource, ref TenantRef) error {
	if ResolveScopeFilter(c, resource).Allows(ref) {
		return nil
	}
	return internal.ErrForbidden.WithMessage(fmt.Sprintf("%s is outside the caller's scope", resource))
}

// StoreRef is a convenience for rows that always carry a store.
func StoreRef(brandID, storeID int64) TenantRef {
	return TenantRef{BrandID: brandID, StoreID: &storeID}
}
