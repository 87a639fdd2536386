package user

import "github.com/frahmantamala/gym-management/internal/auth"

// ScopeView describes how far the caller can see across tenants.
type ScopeView struct {
	Kind    auth.ScopeKind `json:"kind"`
	BrandID int64          `json:"brand_id,omitempty"`
	StoreID int64          `json:"store_id,omitempty"`
}

// Profile is the body of GET /users/me.
type Profile struct {
	*User
	Scope       ScopeView           `json:"scope"`
	Permissions map[string][]string `json:"permissions"`
}
