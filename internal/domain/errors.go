package domain

import "errors"

// Domain errors
var (
	ErrLaunchFailed    = errors.New("worker launch failed")
	ErrAlreadyRunning  = errors.New("supervisor already running")
	ErrNoWorkers       = errors.New("no workers to launch")
	ErrInvalidPattern  = errors.New("invalid filter pattern")
	ErrShutdownStarted = errors.New("shutdown in progress")
)

// Error codes for API responses
const (
	ErrCodeLaunchFailed    = "LAUNCH_FAILED"
	ErrCodeInvalidPattern  = "INVALID_PATTERN"
	ErrCodeShutdownStarted = "SHUTDOWN_IN_PROGRESS"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrLaunchFailed):
		return ErrCodeLaunchFailed
	case errors.Is(err, ErrInvalidPattern):
		return ErrCodeInvalidPattern
	case errors.Is(err, ErrShutdownStarted):
		return ErrCodeShutdownStarted
	default:
		return "INTERNAL_ERROR"
	}
}
