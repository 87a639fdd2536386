package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
)

// Lookup resolves a coach by the tenant-unique employee number.
type Lookup interface {
	FindByEmployeeNumber(ctx context.Context, brandID int64, employeeNumber string) (*Coach, error)
}

type ctxKey struct{}

func WithCoach(ctx context.Context, c *Coach) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the coach attached by the specialization gate.
func FromContext(ctx context.Context) (*Coach, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Coach)
	return c, ok && c != nil
}

// Gate restricts coach-only routes to coaches holding a specialization.
type Gate struct {
	lookup Lookup
	logger *slog.Logger
}

func NewGate(lookup Lookup, logger *slog.Logger) *Gate {
	return &Gate{lookup: lookup, logger: logger}
}

// RequireSpecialization returns a guard that resolves the caller's coach
// record and checks it qualifies for kind. The coach is attached to the
// returned context.
func (g *Gate) RequireSpecialization(kind Specialization) auth.Guard {
	return auth.GuardFunc(func(ctx context.Context, caller *auth.Caller) (context.Context, error) {
		if caller == nil {
			return ctx, internal.ErrUnauthenticated
		}
		if !caller.IsCoach() {
			return ctx, internal.ErrForbidden.WithMessage("not a coach")
		}
		if caller.EmployeeNumber == "" {
			return ctx, internal.ErrForbidden.WithMessage("coach profile missing")
		}

		c, err := g.lookup.FindByEmployeeNumber(ctx, caller.BrandID, caller.EmployeeNumber)
		if err != nil {
			if errors.Is(err, internal.ErrCoachNotFound) {
				return ctx, internal.ErrForbidden.WithMessage("coach profile missing")
			}
			g.logger.ErrorContext(ctx, "coach lookup failed",
				"brand_id", caller.BrandID,
				"employee_number", caller.EmployeeNumber,
				"error", err)
			return ctx, err
		}

		if !c.Qualifies(kind) {
			return ctx, internal.ErrForbidden.WithMessage(fmt.Sprintf("coach lacks the %s specialization", kind))
		}
		return WithCoach(ctx, c), nil
	})
}
