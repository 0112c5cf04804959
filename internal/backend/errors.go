package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned for every non-2xx backend reply.
type APIError struct {
	// Status is the HTTP status code of the reply.
	Status int

	// Message is the backend's "message" (or "error") field, if any.
	Message string

	// Body is the raw reply body, kept for logging.
	Body []byte
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}

	var envelope struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		e.Message = strings.TrimSpace(envelope.Message)
		if e.Message == "" {
			if s, ok := envelope.Error.(string); ok {
				e.Message = strings.TrimSpace(s)
			}
		}
	}
	return e
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
}

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int { return e.Status }

// UserMessage returns the backend-provided message, which may be empty.
func (e *APIError) UserMessage() string { return e.Message }

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
