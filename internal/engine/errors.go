package engine

import (
	"errors"
	"fmt"
)

// Error is returned by engine construction and operations.
//
// It carries structured fields for diagnostics: the range name and the
// condition involved when a watch registration failed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the range being registered (WATCH_FAILED only).
	Name string

	// Condition is the condition that failed to register (WATCH_FAILED only).
	Condition string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeWatchFailed indicates the environment rejected a condition.
	// Construction fails as a whole; earlier registrations are released.
	ErrCodeWatchFailed ErrorCode = "WATCH_FAILED"

	// ErrCodeInvalidWindow indicates a non-positive coalescing window.
	ErrCodeInvalidWindow ErrorCode = "INVALID_WINDOW"

	// ErrCodeClosed indicates the engine has been closed.
	ErrCodeClosed ErrorCode = "ENGINE_CLOSED"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = &Error{Code: ErrCodeClosed, Message: "engine is closed"}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Name != "" {
		msg += fmt.Sprintf(" (name=%s, condition=%q)", e.Name, e.Condition)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsWatchError returns true if the error is a watch registration failure.
// Uses errors.As to handle wrapped errors.
func IsWatchError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeWatchFailed
	}
	return false
}

// IsClosedError returns true if the error reports a closed engine.
func IsClosedError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeClosed
	}
	return false
}

// newWatchError creates an Error for a failed registration.
func newWatchError(name, condition string, err error) *Error {
	return &Error{
		Code:      ErrCodeWatchFailed,
		Message:   "environment rejected condition",
		Name:      name,
		Condition: condition,
		Err:       err,
	}
}
