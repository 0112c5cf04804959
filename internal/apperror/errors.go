// Package apperror provides domain-specific error types for the console.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER show raw transport errors to the operator. Always wrap them in an
// apperror type or return a generic internal error.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the operator.
type AppError struct {
	// Code is the HTTP status code (e.g., 404, 400, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "not_found").
	Type string `json:"type"`

	// Message is a human-readable description safe for the operator.
	Message string `json:"message"`

	// Fields maps form field names to their validation message. Only set
	// on validation errors.
	Fields FieldErrors `json:"fields,omitempty"`

	// Internal holds the underlying error for logging. Never exposed.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// FieldErrors maps a form field to the single message describing why it is
// invalid. One entry per violated rule.
type FieldErrors map[string]string

// Messages returns the field messages ordered by field name so that
// notifications render deterministically.
func (f FieldErrors) Messages() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, f[k])
	}
	return out
}

// --- Constructors for common error types ---

// NewNotFound creates a 404 Not Found error.
func NewNotFound(message string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Type:    "not_found",
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewUnauthorized creates a 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewForbidden creates a 403 Forbidden error.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:    http.StatusForbidden,
		Type:    "forbidden",
		Message: message,
	}
}

// NewConflict creates a 409 Conflict error. Used for business-rule
// rejections such as modifying a campaign that is no longer a draft.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "conflict",
		Message: message,
	}
}

// NewBadGateway creates a 502 error for backend failures. The cause is kept
// for logging; the operator sees only the message.
func NewBadGateway(message string, cause error) *AppError {
	return &AppError{
		Code:     http.StatusBadGateway,
		Type:     "backend_error",
		Message:  message,
		Internal: cause,
	}
}

// NewInternal creates a 500 Internal Server Error. The real error is stored
// in Internal for logging but the operator only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// NewValidation creates a 422 Unprocessable Entity error for validation failures.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: message,
	}
}

// NewFieldValidation creates a validation error carrying per-field messages.
// The top-level message joins the field messages.
func NewFieldValidation(fields FieldErrors) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: strings.Join(fields.Messages(), "; "),
		Fields:  fields,
	}
}

// IsValidation reports whether err is a validation AppError.
func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == "validation_error"
}

// FieldsOf returns the per-field messages of a validation error, or nil.
func FieldsOf(err error) FieldErrors {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// --- Backend error translation ---

// backendError is satisfied by the backend client's API error. Declared
// here so apperror does not import the client.
type backendError interface {
	error
	StatusCode() int
	UserMessage() string
}

// FromBackend translates an error returned by the backend client into an
// AppError. 4xx responses keep the backend's message (falling back to
// fallback); 5xx responses and transport failures become a 502 with
// fallback as the message. Context cancellation is passed through as-is so
// callers can tell an abandoned request from a failed one.
func FromBackend(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var be backendError
	if errors.As(err, &be) {
		code := be.StatusCode()
		msg := be.UserMessage()
		if msg == "" {
			msg = fallback
		}
		switch {
		case code == http.StatusNotFound:
			return &AppError{Code: code, Type: "not_found", Message: msg, Internal: err}
		case code == http.StatusConflict:
			return &AppError{Code: code, Type: "conflict", Message: msg, Internal: err}
		case code >= 400 && code < 500:
			return &AppError{Code: http.StatusBadRequest, Type: "bad_request", Message: msg, Internal: err}
		default:
			return NewBadGateway(fallback, err)
		}
	}

	return NewBadGateway(fallback, err)
}

// --- Safe accessors ---

// SafeMessage returns the operator-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like backend URLs or stack traces.
func SafeMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
