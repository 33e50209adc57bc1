// Package errors provides structured error types for lineage.
//
// The geometry core never terminates on bad input. Anomalies are reported as
// coded errors that callers may log, surface to the user, or ignore, while the
// core keeps producing a renderable state.
//
// # Error Codes
//
//   - MALFORMED_INPUT: an unresolvable or cyclic parent reference, or a
//     profile record that fails validation. Recovered by treating the record
//     as a new root or skipping it.
//   - OUT_OF_BOUNDS_CONFIG: a configuration value outside its documented
//     range. Recovered by clamping.
//   - CAPACITY_EXCEEDED: more profiles than the configured hard cap. The view
//     keeps rendering a bounded, aggregated set and reports degraded mode.
//   - INVALID_GESTURE_SEQUENCE: e.g. a pinch update without a pinch start.
//     Ignored; the gesture controller resets to idle.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedInput, "father %q not found", id)
//	if errors.Is(err, errors.ErrCodeMalformedInput) {
//	    // recovered anomaly
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Recoverable anomalies
	ErrCodeMalformedInput         Code = "MALFORMED_INPUT"
	ErrCodeOutOfBoundsConfig      Code = "OUT_OF_BOUNDS_CONFIG"
	ErrCodeCapacityExceeded       Code = "CAPACITY_EXCEEDED"
	ErrCodeInvalidGestureSequence Code = "INVALID_GESTURE_SEQUENCE"

	// Input and lookup errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err is one of the anomaly codes the core
// recovers from on its own.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedInput, ErrCodeOutOfBoundsConfig,
		ErrCodeCapacityExceeded, ErrCodeInvalidGestureSequence:
		return true
	}
	return false
}

// Warnings is an ordered list of recovered anomalies collected during one
// operation, such as a layout pass or a config clamp.
type Warnings []error

// Add appends err if it is non-nil.
func (w *Warnings) Add(err error) {
	if err != nil {
		*w = append(*w, err)
	}
}

// Has reports whether any warning carries code.
func (w Warnings) Has(code Code) bool {
	for _, err := range w {
		if Is(err, code) {
			return true
		}
	}
	return false
}

// Count returns the number of warnings carrying code.
func (w Warnings) Count(code Code) int {
	n := 0
	for _, err := range w {
		if Is(err, code) {
			n++
		}
	}
	return n
}

// Err joins the warnings into a single error, or nil when empty.
func (w Warnings) Err() error {
	if len(w) == 0 {
		return nil
	}
	return errors.Join(w...)
}
