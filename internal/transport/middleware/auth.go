package middleware

import (
	"net/http"

	"github.com/frahmantamala/gym-management/internal/auth"
	"github.com/frahmantamala/gym-management/pkg/logger"
)

// CallerContext tags the request logger with the authenticated caller's
// tenant so every log line of the request carries brand and store. It must
// run after authentication.
func CallerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		fields := []any{"brand_id", caller.BrandID, "roles", caller.RoleNames()}
		if caller.StoreID != nil {
			fields = append(fields, "store_id", *caller.StoreID)
		}
		if caller.EmployeeNumber != "" {
			fields = append(fields, "employee_number", caller.EmployeeNumber)
		}

		ctx := logger.With(r.Context(), fields...)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
