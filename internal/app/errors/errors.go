package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Harmonization error taxonomy
var (
	// Standardization
	ErrDimensionMismatch = New("dimension mismatch")
	ErrUnknownModel      = New("unknown model")
	ErrEmptyVector       = New("empty vector")

	// Discovery
	ErrProbeTimeout       = New("probe timeout")
	ErrProbeFailure       = New("probe failure")
	ErrCatalogUnreachable = New("catalog unreachable")
	ErrCycleInProgress    = New("discovery cycle already in progress")

	// Persistence
	ErrPersistenceFailure = New("persistence failure")
	ErrBackupNotFound     = New("backup not found")
	ErrNoActiveSnapshot   = New("no active snapshot")

	// Configuration
	ErrInvalidPolicy = New("invalid standardization policy")
	ErrInvalidConfig = New("invalid configuration")
	ErrMissingAPIKey = New("API key is required")
	ErrInvalidAPIKey = New("invalid API key format")
	ErrUnsupported   = New("unsupported backend")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Mark attaches a taxonomy sentinel to err so that errors.Is(result, kind) holds
// while the original cause stays reachable through Unwrap.
func Mark(kind *Error, err error) error {
	if err == nil {
		return nil
	}
	return &marked{kind: kind, cause: err}
}

type marked struct {
	kind  *Error
	cause error
}

func (m *marked) Error() string {
	return fmt.Sprintf("%s: %v", m.kind.message, m.cause)
}

func (m *marked) Unwrap() []error {
	return []error{m.kind, m.cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// DimensionMismatchError reports a vector whose length is not one the registry
// believes the model can emit.
type DimensionMismatchError struct {
	ModelKey string
	Got      int
	Expected []int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch for model %s: got %d, expected one of %v", e.ModelKey, e.Got, e.Expected)
}

// Is lets errors.Is(err, ErrDimensionMismatch) match.
func (e *DimensionMismatchError) Is(target error) bool {
	return ErrDimensionMismatch.Is(target)
}

// IsSoft reports whether err only degrades knowledge about a single model
// (unknown model, probe timeout or failure) rather than aborting an operation.
func IsSoft(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrUnknownModel) ||
		stderrors.Is(err, ErrProbeTimeout) ||
		stderrors.Is(err, ErrProbeFailure)
}

// IsHard reports whether err must abort without mutating live state.
func IsHard(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, ErrCatalogUnreachable) ||
		stderrors.Is(err, ErrPersistenceFailure) ||
		stderrors.Is(err, ErrDimensionMismatch) ||
		stderrors.Is(err, ErrEmptyVector)
}

// Helper functions for common patterns

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Newf("%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Newf("%s is invalid: %s", field, reason)
}

// OutOfRange returns an error for values outside acceptable range
func OutOfRange(field string, min, max interface{}) error {
	return Newf("%s out of range (must be between %v and %v)", field, min, max)
}

// NotFound returns an error for items that were not found
func NotFound(itemType string, identifier string) error {
	return Newf("%s not found: %s", itemType, identifier)
}

// Timeout returns a timeout error
func Timeout(operation string, duration string) error {
	return Newf("%s timeout after %s", operation, duration)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "required") ||
		strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "out of range")
}
