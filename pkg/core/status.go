package core

// CaseStatus represents the execution status of a test case
type CaseStatus int

const (
	StatusPending          CaseStatus = iota // Not yet started
	StatusRunning                            // Currently executing
	StatusPassed                             // Completed successfully
	StatusFailed                             // Body returned an error or panicked
	StatusSkipped                            // Disposition skipped it before any backend call
	StatusExpectedFailed                     // Expected-fail disposition and the body did fail
	StatusUnexpectedPassed                   // Expected-fail disposition but the body passed
)

// String returns the string representation of CaseStatus
func (s CaseStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	case StatusExpectedFailed:
		return "expected-failed"
	case StatusUnexpectedPassed:
		return "unexpected-passed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusExpectedFailed, StatusUnexpectedPassed:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status counts toward a clean run.
// Unexpected passes are anomalies and do not count.
func (s CaseStatus) IsSuccess() bool {
	switch s {
	case StatusPassed, StatusSkipped, StatusExpectedFailed:
		return true
	default:
		return false
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone      ErrorCategory = iota // No error
	ErrCategorySession                        // Backend unreachable, bad app path, device busy
	ErrCategoryElement                        // Element not found or never interactable
	ErrCategoryBackend                        // Wire-level failure talking to the automation server
	ErrCategoryCapture                        // Failure screenshot could not be taken or persisted
	ErrCategoryConfig                         // Invalid configuration, missing required field
	ErrCategoryInterrupt                      // Run canceled
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategorySession:
		return "session"
	case ErrCategoryElement:
		return "element"
	case ErrCategoryBackend:
		return "backend"
	case ErrCategoryCapture:
		return "capture"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}
