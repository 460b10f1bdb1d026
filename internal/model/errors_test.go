package model

import (
	"errors"
	"strings"
	"testing"
)

func TestNewValidationError_BuildsMessageFromFields(t *testing.T) {
	err := NewValidationError("", FieldError{Field: "date", Message: "must be a valid ISO-8601 timestamp"})

	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeValidation)
	}
	if !strings.Contains(err.Message, "date: must be a valid ISO-8601 timestamp") {
		t.Errorf("Message = %q, want field detail", err.Message)
	}
	if len(err.Fields) != 1 {
		t.Errorf("Fields length = %d, want 1", len(err.Fields))
	}
}

func TestAPIError_ErrorsAs(t *testing.T) {
	var err error = NewEventNotFoundError("abc")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should match *APIError")
	}
	if apiErr.Code != ErrCodeEventNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeEventNotFound)
	}
	if !strings.Contains(err.Error(), "EVENT_NOT_FOUND") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
}

func TestNewStoreError_KeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := NewStoreError("create event", cause)

	if err.Message != "Failed to create event" {
		t.Errorf("Message = %q, want %q", err.Message, "Failed to create event")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, want cause detail for logs", err.Error())
	}
}
