// Package errors maps application errors to HTTP responses and keeps
// the error metrics in one place.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
)

// ErrorType categorizes an error for response formatting and metrics.
type ErrorType string

const (
	TypeValidation   ErrorType = "validation"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeNotFound     ErrorType = "not_found"
	TypeConflict     ErrorType = "conflict"
	TypeUnavailable  ErrorType = "unavailable"
	TypeInternal     ErrorType = "internal"
)

// Error is a structured error carrying its category and context fields.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code for this error category.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

func UnauthorizedError(message string) *Error {
	return &Error{Type: TypeUnauthorized, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

func ConflictError(message string) *Error {
	return &Error{Type: TypeConflict, Message: message}
}

func UnavailableError(message string, cause error) *Error {
	return &Error{Type: TypeUnavailable, Message: message, Cause: cause}
}

func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON shape sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: e.Context}
}

// FromDomain maps the domain sentinel errors to structured errors so
// handlers can return service errors unmodified.
func FromDomain(err error) *Error {
	switch {
	case errors.Is(err, domain.ErrAlreadyConnected):
		return ConflictError("already tracking this account")
	case errors.Is(err, domain.ErrGiveawayRunning):
		return ConflictError("a giveaway is already running")
	case errors.Is(err, domain.ErrNotTracking):
		return ConflictError("account is not being tracked")
	case errors.Is(err, domain.ErrGiveawayNotFound):
		return NotFoundError("no giveaway found")
	case errors.Is(err, domain.ErrProfileNotFound):
		return NotFoundError("profile not found")
	case errors.Is(err, domain.ErrConnectionFailed):
		return UnavailableError("could not connect to the live stream", err)
	case errors.Is(err, domain.ErrArchiveUnavailable):
		return UnavailableError("result archive is unavailable", err)
	default:
		return nil
	}
}

// AsStructuredError converts any error into a structured Error: domain
// sentinels map to their category, anything else becomes internal.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	if mapped := FromDomain(err); mapped != nil {
		return mapped
	}
	return InternalError("internal server error", err)
}
