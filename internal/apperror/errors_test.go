package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// fakeBackendErr mimics the backend client's API error.
type fakeBackendErr struct {
	code int
	msg  string
}

func (e *fakeBackendErr) Error() string       { return fmt.Sprintf("backend %d: %s", e.code, e.msg) }
func (e *fakeBackendErr) StatusCode() int     { return e.code }
func (e *fakeBackendErr) UserMessage() string { return e.msg }

func TestFromBackend_ClientErrorKeepsMessage(t *testing.T) {
	err := FromBackend(&fakeBackendErr{code: 400, msg: "Can only update draft campaigns"}, "failed")

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", appErr.Code)
	}
	if appErr.Message != "Can only update draft campaigns" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestFromBackend_ServerErrorUsesFallback(t *testing.T) {
	err := FromBackend(&fakeBackendErr{code: 503, msg: "db down"}, "Failed to fetch campaigns")

	if SafeCode(err) != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", SafeCode(err))
	}
	if SafeMessage(err) != "Failed to fetch campaigns" {
		t.Errorf("unexpected message %q", SafeMessage(err))
	}
}

func TestFromBackend_TransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := FromBackend(fmt.Errorf("calling backend: %w", cause), "Failed to load")

	if SafeCode(err) != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", SafeCode(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to stay reachable via errors.Is")
	}
}

func TestFromBackend_PassesCancellation(t *testing.T) {
	err := FromBackend(fmt.Errorf("get: %w", context.Canceled), "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		t.Error("cancellation must not be converted to an AppError")
	}
}

func TestFromBackend_Nil(t *testing.T) {
	if FromBackend(nil, "x") != nil {
		t.Error("expected nil")
	}
}

func TestNewFieldValidation_OrderedMessages(t *testing.T) {
	err := NewFieldValidation(FieldErrors{
		"templateId": "Please select a template",
		"name":       "Name must be at least 3 characters",
	})
	if err.Message != "Name must be at least 3 characters; Please select a template" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !IsValidation(err) {
		t.Error("expected IsValidation to be true")
	}
	if IsValidation(NewBadRequest("nope")) {
		t.Error("bad request is not a validation error")
	}
}
