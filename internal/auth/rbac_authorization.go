package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/frahmantamala/gym-management/pkg/metrics"
)

// Guard is one step of an authorization chain. It either denies with an
// error carrying the reason, or allows and may enrich the context.
type Guard interface {
	Check(ctx context.Context, caller *Caller) (context.Context, error)
}

type GuardFunc func(ctx context.Context, caller *Caller) (context.Context, error)

func (f GuardFunc) Check(ctx context.Context, caller *Caller) (context.Context, error) {
	return f(ctx, caller)
}

// Chain runs guards in order and stops at the first denial.
func Chain(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context, caller *Caller) (context.Context, error) {
		for _, g := range guards {
			next, err := g.Check(ctx, caller)
			if err != nil {
				return ctx, err
			}
			if next != nil {
				ctx = next
			}
		}
		return ctx, nil
	})
}

// RequirePermission allows the request when any of the caller's roles grants
// action on resource.
func RequirePermission(resolver *PermissionResolver, resource Resource, action Action) Guard {
	return GuardFunc(func(ctx context.Context, caller *Caller) (context.Context, error) {
		return ctx, resolver.CheckAny(caller.Roles, resource, action)
	})
}

// RBACAuthorization turns guards into chi middlewares.
type RBACAuthorization struct {
	resolver *PermissionResolver
	metrics  *metrics.AuthorizationMetrics
	logger   *slog.Logger
}

func NewRBACAuthorization(resolver *PermissionResolver, m *metrics.AuthorizationMetrics, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		resolver: resolver,
		metrics:  m,
		logger:   logger,
	}
}

func (ra *RBACAuthorization) Resolver() *PermissionResolver {
	return ra.resolver
}

// Require builds a middleware running the permission check for resource and
// action followed by any extra guards.
func (ra *RBACAuthorization) Require(resource Resource, action Action, extra ...Guard) func(http.Handler) http.Handler {
	guards := append([]Guard{RequirePermission(ra.resolver, resource, action)}, extra...)
	chain := Chain(guards...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok {
				ra.logger.WarnContext(r.Context(), "authorization check failed: caller not found in context")
				transport.WriteError(w, r, internal.ErrUnauthenticated, ra.logger)
				return
			}

			ctx, err := chain.Check(r.Context(), caller)
			if err != nil {
				reason := "error"
				if appErr, ok := internal.IsAppError(err); ok {
					reason = string(appErr.Code)
				}
				ra.metrics.Denied(resource.String(), action.String(), reason)
				ra.logger.WarnContext(r.Context(), "access denied",
					"user_id", caller.UserID,
					"roles", caller.RoleNames(),
					"resource", resource,
					"action", action,
					"reason", reason)
				transport.WriteError(w, r, err, ra.logger)
				return
			}

			ra.metrics.Allowed(resource.String(), action.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
