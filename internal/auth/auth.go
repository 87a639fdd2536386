package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Caller is the authenticated principal a request runs as. It is built from
// the access token and never re-read from the database mid-request.
type Caller struct {
	UserID         int64
	Email          string
	Username       string
	Roles          []Role
	BrandID        int64
	StoreID        *int64
	EmployeeNumber string
}

func (c *Caller) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsCoach reports whether any of the caller's roles belongs to the coach family.
func (c *Caller) IsCoach() bool {
	for _, r := range c.Roles {
		if r.IsCoach() {
			return true
		}
	}
	return false
}

func (c *Caller) RoleNames() []string {
	names := make([]string, len(c.Roles))
	for i, r := range c.Roles {
		names[i] = r.String()
	}
	return names
}

type ctxKey string

const ContextCallerKey ctxKey = "caller"

func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, ContextCallerKey, c)
}

func CallerFromContext(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(ContextCallerKey).(*Caller)
	return c, ok && c != nil
}

// Claims is the JWT payload contract:
// {sub, email, username, brandId, storeId?, roles[], iat, exp}.
type Claims struct {
	Email          string   `json:"email"`
	Username       string   `json:"username"`
	BrandID        int64    `json:"brandId"`
	StoreID        *int64   `json:"storeId,omitempty"`
	Roles          []string `json:"roles"`
	EmployeeNumber string   `json:"employeeNumber,omitempty"`
	jwt.RegisteredClaims
}

// ToCaller converts verified claims into a Caller. Role strings are
// normalized but not filtered; unknown roles are rejected later by the
// resolver so the denial carries InvalidRole.
func (c *Claims) ToCaller() (*Caller, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		roles = append(roles, NormalizeRole(r))
	}
	return &Caller{
		UserID:         id,
		Email:          c.Email,
		Username:       c.Username,
		Roles:          roles,
		BrandID:        c.BrandID,
		StoreID:        c.StoreID,
		EmployeeNumber: c.EmployeeNumber,
	}, nil
}

// Principal is what the credential store returns for token issuance.
type Principal struct {
	UserID         int64
	Email          string
	Username       string
	PasswordHash   string
	BrandID        int64
	StoreID        *int64
	EmployeeNumber string
	Roles          []string
	IsActive       bool
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenGenerator creates and verifies signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(p *Principal) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(p *Principal) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	now                func() time.Time
}
