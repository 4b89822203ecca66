// Package domain contains domain errors used throughout the application.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	ErrMalformedDescriptor = errors.New("malformed session descriptor")
	ErrUnknownStatus       = errors.New("unknown session status")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidTerminal     = errors.New("invalid terminal id")
	ErrFocusUnavailable    = errors.New("no terminal focus backend available")
	ErrFocusRateLimited    = errors.New("focus request rate limited")
	ErrRegistryRunning     = errors.New("registry is already running")
	ErrRegistryStopped     = errors.New("registry is stopped")
	ErrInstanceLocked      = errors.New("another glance instance is running")
	ErrWakeUnsupported     = errors.New("wake source not supported on this system")
	ErrHubNotRunning       = errors.New("event hub is not running")
	ErrSubscriberClosed    = errors.New("subscriber is closed")
)

// ParseErrorKind classifies descriptor parse failures.
type ParseErrorKind string

const (
	ParseErrorMalformed     ParseErrorKind = "malformed"
	ParseErrorUnknownStatus ParseErrorKind = "unknown_status"
)

// ParseError is returned when a session descriptor cannot be turned into a
// record. The file is left on disk; it is skipped on every reload until the
// writer fixes it.
type ParseError struct {
	ID    string         // Session id derived from the file name
	Kind  ParseErrorKind // malformed or unknown_status
	Field string         // Offending field, empty for whole-document errors
	Err   error          // Underlying error, may be nil
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("session %s: %s", e.ID, e.Kind)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching this error's kind.
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case ParseErrorMalformed:
		return target == ErrMalformedDescriptor
	case ParseErrorUnknownStatus:
		return target == ErrUnknownStatus
	}
	return false
}

// NewMalformedError creates a ParseError of kind malformed.
func NewMalformedError(id, field string, err error) *ParseError {
	return &ParseError{ID: id, Kind: ParseErrorMalformed, Field: field, Err: err}
}

// NewUnknownStatusError creates a ParseError of kind unknown_status.
func NewUnknownStatusError(id, status string) *ParseError {
	return &ParseError{
		ID:    id,
		Kind:  ParseErrorUnknownStatus,
		Field: "status",
		Err:   fmt.Errorf("unrecognized value %q", status),
	}
}

// StoreError represents a failed operation on the session directory.
type StoreError struct {
	Op   string // Operation that failed
	Path string // File or directory involved
	Err  error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, path string, err error) *StoreError {
	return &StoreError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// FocusError represents a failed terminal focus attempt.
type FocusError struct {
	Backend string // Backend that failed (iterm2, tmux)
	TTY     string // Terminal id that was requested
	Err     error  // Underlying error
}

func (e *FocusError) Error() string {
	return fmt.Sprintf("focus %s via %s: %v", e.TTY, e.Backend, e.Err)
}

func (e *FocusError) Unwrap() error {
	return e.Err
}

// NewFocusError creates a new FocusError.
func NewFocusError(backend, tty string, err error) *FocusError {
	return &FocusError{
		Backend: backend,
		TTY:     tty,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
