package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for engine errors.
type ErrorCode string

// Graph definition error codes
const (
	GRAPH_DEFINITION_INVALID ErrorCode = "GRAPH_DEFINITION_INVALID"
	GRAPH_CYCLE_DETECTED     ErrorCode = "GRAPH_CYCLE_DETECTED"
)

// Task execution error codes
const (
	TASK_EXECUTION_FAILED ErrorCode = "TASK_EXECUTION_FAILED"
	TASK_TIMEOUT          ErrorCode = "TASK_TIMEOUT"
	TASK_CANCELLED        ErrorCode = "TASK_CANCELLED"
)

// Run-level error codes
const (
	PHASE_ABORTED       ErrorCode = "PHASE_ABORTED"
	CONFLICT_UNRESOLVED ErrorCode = "CONFLICT_UNRESOLVED"
)

// Validation gate error codes
const (
	VALIDATION_UNAVAILABLE  ErrorCode = "VALIDATION_UNAVAILABLE"
	VALIDATION_BLOCKED      ErrorCode = "VALIDATION_BLOCKED"
	VALIDATION_RATE_LIMITED ErrorCode = "VALIDATION_RATE_LIMITED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// CompassError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints so the
// orchestrator can distinguish transient from permanent task failures.
type CompassError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *CompassError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *CompassError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a CompassError with the same Code.
func (e *CompassError) Is(target error) bool {
	var compassErr *CompassError
	if errors.As(target, &compassErr) {
		return e.Code == compassErr.Code
	}
	return false
}

// NewError creates a new non-retryable CompassError with the given code and message.
func NewError(code ErrorCode, message string) *CompassError {
	return &CompassError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable CompassError with the given code
// and message. Use this for transient errors that may succeed on retry
// (e.g., network timeouts against the validation collaborator).
func NewRetryableError(code ErrorCode, message string) *CompassError {
	return &CompassError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable CompassError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *CompassError {
	return &CompassError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapRetryableError creates a retryable CompassError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *CompassError {
	return &CompassError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a
// CompassError flagged as retryable. Non-CompassError values are treated
// as permanent.
func IsRetryable(err error) bool {
	var compassErr *CompassError
	if errors.As(err, &compassErr) {
		return compassErr.Retryable
	}
	return false
}
