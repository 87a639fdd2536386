package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/internal/transport"
)

// RequireRoles lets the request through when the caller holds at least one of
// roles. It is meant for operational endpoints that sit outside the
// resource/action permission table.
func RequireRoles(lg *slog.Logger, roles ...auth.Role) func(http.Handler) http.Handler {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := auth.CallerFromContext(r.Context())
			if !ok {
				transport.WriteError(w, r, internal.ErrUnauthenticated, lg)
				return
			}

			for _, role := range caller.Roles {
				if _, ok := allowed[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			lg.WarnContext(r.Context(), "access denied: caller lacks required role",
				"user_id", caller.UserID,
				"required_roles", roles,
				"roles", caller.RoleNames())
			transport.WriteError(w, r, internal.ErrInsufficientPermission, lg)
		})
	}
}
