package domain

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnknownCalculator = "UNKNOWN_CALCULATOR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeIncomplete        = "INCOMPLETE_ANSWERS"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalServer    = "INTERNAL_SERVER_ERROR"
)

// Sentinel errors returned by the service layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownCalculator = errors.New("unknown calculator")
	ErrIncomplete        = errors.New("not every input has been answered")
	ErrUnknownAgent      = errors.New("unknown agent")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ErrorCode maps an error returned by the service layer to its API code.
func ErrorCode(err error) string {
	var validation *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return ErrCodeValidation
	case errors.Is(err, ErrUnknownCalculator), errors.Is(err, ErrUnknownAgent):
		return ErrCodeUnknownCalculator
	case errors.Is(err, ErrIncomplete):
		return ErrCodeIncomplete
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	}
	return ErrCodeInternalServer
}
