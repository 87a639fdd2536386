package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/gym-management/pkg/logger"
)

// redactedKeys are matched as substrings of lower-cased header and JSON keys.
var redactedKeys = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"key",
	"session",
	"credential",
}

// maskedKeys keep their last four characters so desk staff can still match a
// log line to a physical card.
var maskedKeys = []string{"card_number"}

const (
	redacted       = "[FILTERED]"
	maxLoggedBody  = 8 << 10
	maskVisibleLen = 4
)

// LoggingMiddleware logs every request and its outcome with sensitive headers
// and JSON fields masked. It logs through the request-scoped logger when
// RequestID bound one, and through fallback otherwise.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lg := fallback
			if logger.Bound(r.Context()) {
				lg = logger.From(r.Context())
			}

			logRequest(lg, r)

			ww := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			logResponse(r, lg, ww, time.Since(start))
		})
	}
}

// responseWriter captures the status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// logRequest logs the incoming request; the body is read up to
// maxLoggedBody and restored for the handler.
func logRequest(lg *slog.Logger, r *http.Request) {
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		body, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
		if len(body) > maxLoggedBody {
			body = nil
		}
	}

	lg.DebugContext(r.Context(), "incoming request",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", redactHeaders(r.Header),
		"body", redactBody(body),
	)
}

func logResponse(r *http.Request, lg *slog.Logger, rw *responseWriter, duration time.Duration) {
	status := rw.statusCode
	if status == 0 {
		status = http.StatusOK
	}

	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case status >= http.StatusBadRequest:
		level = slog.LevelWarn
	}

	lg.Log(r.Context(), level, "response",
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.size,
	)
}

func matchesAny(name string, keys []string) bool {
	name = strings.ToLower(name)
	for _, k := range keys {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

func mask(v string) string {
	if len(v) <= maskVisibleLen {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-maskVisibleLen) + v[len(v)-maskVisibleLen:]
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if matchesAny(name, redactedKeys) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody returns the JSON body with sensitive values replaced. Non-JSON
// bodies are dropped entirely when they mention a sensitive key.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		if matchesAny(string(body), redactedKeys) {
			return redacted
		}
		return string(body)
	}

	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return redacted
	}
	return string(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			switch {
			case matchesAny(key, redactedKeys):
				out[key] = redacted
			case matchesAny(key, maskedKeys):
				if str, ok := val.(string); ok {
					out[key] = mask(str)
				} else {
					out[key] = redacted
				}
			default:
				out[key] = redactValue(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}
