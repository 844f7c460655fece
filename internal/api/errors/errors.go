package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindBadRequest         ErrorKind = "bad_request"
)

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Code      string            `json:"code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Kind:    KindConflict,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Kind:    KindServiceUnavailable,
		Message: message,
	}
}

// FromError maps a core error onto the API taxonomy. Errors with no known
// kind become KindInternal and keep no message detail.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var mismatch *apperrors.DimensionMismatchError
	if stderrors.As(err, &mismatch) {
		expected := make([]string, len(mismatch.Expected))
		for i, d := range mismatch.Expected {
			expected[i] = fmt.Sprint(d)
		}
		return &APIError{
			Kind:    KindValidation,
			Message: mismatch.Error(),
			Code:    "dimension_mismatch",
			Details: map[string]string{
				"model_key": mismatch.ModelKey,
				"got":       fmt.Sprint(mismatch.Got),
				"expected":  strings.Join(expected, ","),
			},
		}
	}

	switch {
	case stderrors.Is(err, apperrors.ErrEmptyVector):
		return &APIError{Kind: KindValidation, Message: err.Error(), Code: "empty_vector"}
	case stderrors.Is(err, apperrors.ErrUnknownModel):
		return &APIError{Kind: KindNotFound, Message: err.Error(), Code: "unknown_model"}
	case stderrors.Is(err, apperrors.ErrBackupNotFound):
		return &APIError{Kind: KindNotFound, Message: err.Error(), Code: "backup_not_found"}
	case stderrors.Is(err, apperrors.ErrNoActiveSnapshot):
		return &APIError{Kind: KindNotFound, Message: err.Error(), Code: "no_active_snapshot"}
	case stderrors.Is(err, apperrors.ErrCycleInProgress):
		return &APIError{Kind: KindConflict, Message: err.Error(), Code: "cycle_in_progress"}
	case stderrors.Is(err, apperrors.ErrInvalidPolicy):
		return &APIError{Kind: KindBadRequest, Message: err.Error(), Code: "invalid_policy"}
	case stderrors.Is(err, apperrors.ErrUnsupported):
		return &APIError{Kind: KindBadRequest, Message: err.Error(), Code: "unsupported"}
	case stderrors.Is(err, apperrors.ErrCatalogUnreachable):
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error(), Code: "catalog_unreachable"}
	case stderrors.Is(err, apperrors.ErrPersistenceFailure):
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error(), Code: "persistence_failure"}
	case apperrors.IsValidationError(err):
		return &APIError{Kind: KindValidation, Message: err.Error()}
	case strings.Contains(err.Error(), "not found"):
		return &APIError{Kind: KindNotFound, Message: err.Error()}
	}

	return &APIError{Kind: KindInternal, Message: "Internal server error"}
}
