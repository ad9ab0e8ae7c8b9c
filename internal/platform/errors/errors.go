// Package errors provides structured error handling with context propagation and HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pscheid92/applyme/internal/domain"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeUnauthorized indicates a missing or rejected bearer token (HTTP 401)
	TypeUnauthorized ErrorType = "unauthorized"
	// TypeConflict indicates an action already in flight (HTTP 409)
	TypeConflict ErrorType = "conflict"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
	// TypeExternal indicates an Applyme API failure (HTTP 502)
	TypeExternal ErrorType = "external"
)

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

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeConflict:
		return http.StatusConflict
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message, Context: make(map[string]any)}
}

func UnauthorizedError(message string) *Error {
	return &Error{Type: TypeUnauthorized, Message: message, Context: make(map[string]any)}
}

func ConflictError(message string) *Error {
	return &Error{Type: TypeConflict, Message: message, Context: make(map[string]any)}
}

func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ExternalError(message string, cause error) *Error {
	return &Error{Type: TypeExternal, Message: message, Cause: cause, Context: make(map[string]any)}
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// FromRequestError classifies a user-facing RequestError. The message is kept
// verbatim so JSON clients see the same text a status region would.
func FromRequestError(reqErr *domain.RequestError) *Error {
	var err *Error
	switch {
	case reqErr == domain.ErrActionInFlight:
		err = ConflictError(reqErr.Message)
	case reqErr == domain.ErrAPIUnavailable:
		err = ExternalError(reqErr.Message, reqErr.Err)
	case reqErr.Status == http.StatusUnauthorized:
		err = UnauthorizedError(reqErr.Message)
	case reqErr.Status == 0 && reqErr.Err == nil:
		err = ValidationError(reqErr.Message)
	default:
		err = ExternalError(reqErr.Message, reqErr.Err)
	}
	if reqErr.Status != 0 {
		err.WithField("upstream_status", reqErr.Status)
	}
	return err
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// RequestErrors are classified, anything else becomes an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		return FromRequestError(reqErr)
	}

	return InternalError("internal server error", err)
}
