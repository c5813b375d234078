package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := New("TEST_001", "test error")

	if err.Code != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
}

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("disk I/O error")
	err := Persistence("failed to insert log", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}
	if !strings.Contains(err.Error(), "disk I/O error") {
		t.Errorf("expected error string to contain cause, got %s", err.Error())
	}
	if err.Unwrap() != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := DuplicateLog("medication %d already taken on %s", 3, "2026-10-16")
	wrapped := fmt.Errorf("log dose: %w", err)

	if !stderrors.Is(wrapped, ErrDuplicateLog) {
		t.Error("expected wrapped duplicate error to match ErrDuplicateLog")
	}
	if stderrors.Is(wrapped, ErrNotFound) {
		t.Error("duplicate error must not match ErrNotFound")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validation("name is required"), CodeValidation},
		{NotFound("medication %d not found", 9), CodeNotFound},
		{Service("completion failed", fmt.Errorf("timeout")), CodeService},
		{fmt.Errorf("outer: %w", Persistence("x", nil)), CodePersistence},
		{fmt.Errorf("standard error"), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := GetCode(tt.err); got != tt.want {
			t.Errorf("GetCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(fmt.Errorf("wrapped: %w", ErrValidation)) {
		t.Error("expected IsAppError to see through wrapping")
	}
	if IsAppError(fmt.Errorf("standard error")) {
		t.Error("expected IsAppError to return false for standard error")
	}
}
