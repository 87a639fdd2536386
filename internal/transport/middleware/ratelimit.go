package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/transport"
	"github.com/go-chi/httprate"
)

// RateLimitByIP caps requests per client address and answers with the
// standard error envelope once the window is exhausted.
func RateLimitByIP(lg *slog.Logger, requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			transport.WriteError(w, r, internal.ErrTooManyRequests, lg)
		}),
	)
}
