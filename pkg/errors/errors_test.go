package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedInput, "father %q not found", "p1")

	if err.Code != ErrCodeMalformedInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedInput)
	}

	if err.Message != `father "p1" not found` {
		t.Errorf("Message = %v", err.Message)
	}

	expected := `MALFORMED_INPUT: father "p1" not found`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "layout failed")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeCapacityExceeded, "x"), ErrCodeCapacityExceeded, true},
		{"different code", New(ErrCodeCapacityExceeded, "x"), ErrCodeNotFound, false},
		{"wrapped", fmt.Errorf("outer: %w", New(ErrCodeOutOfBoundsConfig, "x")), ErrCodeOutOfBoundsConfig, true},
		{"plain error", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeNotFound, "node %s", "a")); got != "node a" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("raw")); got != "raw" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestRecoverable(t *testing.T) {
	if !Recoverable(New(ErrCodeInvalidGestureSequence, "pinch")) {
		t.Error("gesture sequence errors are recoverable")
	}
	if Recoverable(New(ErrCodeInternal, "boom")) {
		t.Error("internal errors are not recoverable")
	}
}

func TestWarnings(t *testing.T) {
	var w Warnings
	w.Add(nil)
	if w.Err() != nil {
		t.Fatal("empty warnings should produce nil error")
	}
	w.Add(New(ErrCodeMalformedInput, "a"))
	w.Add(New(ErrCodeMalformedInput, "b"))
	w.Add(New(ErrCodeCapacityExceeded, "c"))

	if !w.Has(ErrCodeCapacityExceeded) {
		t.Error("Has(CapacityExceeded) = false")
	}
	if got := w.Count(ErrCodeMalformedInput); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	if !Is(w.Err(), ErrCodeMalformedInput) {
		t.Error("joined error should match contained code")
	}
}
