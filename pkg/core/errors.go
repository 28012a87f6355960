package core

import (
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, session_start_failed, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the same predefined error value. Copies made
// by WithCause/WithMessage/WithDetails keep matching their original.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Session errors
	ErrSessionStart = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_start_failed",
		Message:  "could not start automation session",
	}
	ErrSessionClosed = &ExecutionError{
		Category: ErrCategorySession,
		Code:     "session_closed",
		Message:  "session is not active",
	}

	// Element errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryElement,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrElementNotInteractable = &ExecutionError{
		Category: ErrCategoryElement,
		Code:     "element_not_interactable",
		Message:  "element found but never became interactable",
	}

	// Backend errors
	ErrTransientBackend = &ExecutionError{
		Category: ErrCategoryBackend,
		Code:     "transient_backend_error",
		Message:  "transient backend error",
	}
	ErrBackendUnreachable = &ExecutionError{
		Category: ErrCategoryBackend,
		Code:     "backend_unreachable",
		Message:  "could not reach automation backend",
	}

	// Capture errors
	ErrCapture = &ExecutionError{
		Category: ErrCategoryCapture,
		Code:     "capture_failed",
		Message:  "failure screenshot could not be captured",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}

	// Interrupt errors
	ErrInterrupted = &ExecutionError{
		Category: ErrCategoryInterrupt,
		Code:     "interrupted",
		Message:  "run interrupted",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
