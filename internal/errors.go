package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeState        ErrorType = "STATE_ERROR"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"

	ErrCodeInvalidRole            ErrorCode = "INVALID_ROLE"
	ErrCodeInsufficientPermission ErrorCode = "INSUFFICIENT_PERMISSION"
	ErrCodeForbidden              ErrorCode = "FORBIDDEN"

	ErrCodeCardNotActive         ErrorCode = "CARD_NOT_ACTIVE"
	ErrCodeCardExpired           ErrorCode = "CARD_EXPIRED"
	ErrCodeCardExhausted         ErrorCode = "CARD_EXHAUSTED"
	ErrCodeInvalidCardTransition ErrorCode = "INVALID_CARD_TRANSITION"
	ErrCodeConcurrencyConflict   ErrorCode = "CONCURRENCY_CONFLICT"

	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeMemberNotFound  ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeCoachNotFound   ErrorCode = "COACH_NOT_FOUND"
	ErrCodeCardNotFound    ErrorCode = "CARD_NOT_FOUND"
	ErrCodeBookingNotFound ErrorCode = "BOOKING_NOT_FOUND"
	ErrCodeCheckInNotFound ErrorCode = "CHECKIN_NOT_FOUND"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so that a copy carrying a call-specific message still
// compares equal to its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) clone() *AppError {
	cp := *e
	return &cp
}

// WithCause returns a copy of e wrapping cause. Sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := e.clone()
	cp.Cause = cause
	return cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := e.clone()
	cp.Details = details
	return cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := e.clone()
	cp.Message = message
	return cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewStateError reports a request that is well formed but not allowed by the
// current state of the entity it targets.
func NewStateError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeState,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       ErrCodeTooManyRequests,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrValidationFailed = NewValidationError("Validation failed", ErrCodeValidationFailed)
	ErrTooManyRequests  = NewRateLimitError("Too many requests, slow down")

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrUnauthenticated    = NewUnauthorizedError("Authentication required", ErrCodeUnauthenticated)

	ErrInvalidRole            = NewForbiddenError("Role is not recognised", ErrCodeInvalidRole)
	ErrInsufficientPermission = NewForbiddenError("Insufficient permission for this action", ErrCodeInsufficientPermission)
	ErrForbidden              = NewForbiddenError("Access to this resource is forbidden", ErrCodeForbidden)

	ErrCardNotActive         = NewStateError("Membership card is not active", ErrCodeCardNotActive)
	ErrCardExpired           = NewStateError("Membership card has expired", ErrCodeCardExpired)
	ErrCardExhausted         = NewStateError("Membership card has no remaining sessions", ErrCodeCardExhausted)
	ErrInvalidCardTransition = NewStateError("Membership card cannot make this transition", ErrCodeInvalidCardTransition)
	ErrConcurrencyConflict   = NewConflictError("Resource was modified concurrently, retry the request", ErrCodeConcurrencyConflict)

	ErrUserNotFound    = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrMemberNotFound  = NewNotFoundError("Member not found", ErrCodeMemberNotFound)
	ErrCoachNotFound   = NewNotFoundError("Coach not found", ErrCodeCoachNotFound)
	ErrCardNotFound    = NewNotFoundError("Membership card not found", ErrCodeCardNotFound)
	ErrBookingNotFound = NewNotFoundError("Booking not found", ErrCodeBookingNotFound)
	ErrCheckInNotFound = NewNotFoundError("Check-in not found", ErrCodeCheckInNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
