package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures at the subsystem boundary. Codes are
// stable strings so callers can decide whether to retry, degrade, or
// surface the failure without matching on message text.
type ErrorCode string

const (
	// ErrCodeBackendUnavailable means a backing store is not configured
	// or not reachable. Handlers degrade to an empty result.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// ErrCodeUnknownTool means a tool call named a tool the executor
	// does not know. Returned as a failed ToolResult, never a panic.
	ErrCodeUnknownTool ErrorCode = "UNKNOWN_TOOL"

	// ErrCodePartialAggregation means one section of an aggregate call
	// failed and was omitted from the merged summary.
	ErrCodePartialAggregation ErrorCode = "PARTIAL_AGGREGATION"

	// ErrCodeMaintenanceConflict means a tier-management or decay pass
	// was already running for the same owner.
	ErrCodeMaintenanceConflict ErrorCode = "MAINTENANCE_CONFLICT"

	// ErrCodeInvalidTransition means a promotion or demotion violated
	// the tier state machine.
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	ErrCodeRecordNotFound   ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeInvalidArguments ErrorCode = "INVALID_ARGUMENTS"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// Error is a structured error with code, message, and optional cause.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" when the
// error carries no code.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// FormatToolError renders an error as "{error_type}: {message}" for
// embedding in a ToolResult. Uncoded errors default to INTERNAL_ERROR.
func FormatToolError(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Cause != nil {
			msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return fmt.Sprintf("%s: %v", ErrCodeInternal, err)
}
