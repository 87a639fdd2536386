package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/core/common/validation"
	"github.com/frahmantamala/gym-management/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Code      internal.ErrorCode         `json:"code"`
	Message   string                     `json:"message"`
	Errors    []internal.ValidationError `json:"errors,omitempty"`
	Timestamp string                     `json:"timestamp"`
	Path      string                     `json:"path"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, data, h.Logger)
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, lg *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && lg != nil {
		lg.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError renders err as an ErrorEnvelope. AppErrors keep their status and
// code; anything else is logged and reported as a generic 500.
func (h *BaseHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, err, h.Logger)
}

func WriteError(w http.ResponseWriter, r *http.Request, err error, lg *slog.Logger) {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}

	appErr, ok := internal.IsAppError(err)
	if !ok || appErr.StatusCode == 0 {
		lg.ErrorContext(r.Context(), "unhandled error", "error", err, "method", r.Method, "path", r.URL.Path)
		appErr = internal.NewInternalError("internal server error", err)
	} else if appErr.StatusCode >= http.StatusInternalServerError {
		lg.ErrorContext(r.Context(), "request failed", "error", err, "code", appErr.Code, "path", r.URL.Path)
	} else {
		lg.WarnContext(r.Context(), "request rejected",
			"code", appErr.Code,
			"message", appErr.Message,
			"path", r.URL.Path,
			"user_id", internal.UserIDFromContext(r.Context()))
	}

	env := ErrorEnvelope{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok {
		env.Errors = details.Errors
	}
	WriteJSON(w, appErr.StatusCode, env, lg)
}

// DecodeJSON decodes the request body into dest and validates its struct tags.
func (h *BaseHandler) DecodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return internal.NewValidationError("invalid request body", internal.ErrCodeInvalidRequest).WithCause(err)
	}
	if appErr := validation.Struct(dest); appErr != nil {
		return appErr
	}
	return nil
}

// PathID parses a positive int64 route parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, fmt.Sprintf("%s must be a positive integer", name), internal.ErrCodeInvalidID)
	}
	return id, nil
}

// QueryInt reads an integer query parameter, falling back to def.
func (h *BaseHandler) QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}
