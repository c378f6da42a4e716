// Package exitcode maps deploy failures onto process exit codes.
package exitcode

import (
	"errors"
	"fmt"
)

// Exit codes for yabsnap-deploy.
const (
	Success          = 0
	GeneralError     = 1
	PreconditionFail = 2
	StepFail         = 3
	ConfigError      = 4
)

// Error carries an exit code alongside the failure.
type Error struct {
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error without a cause.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap wraps cause with an exit code.
func Wrap(code int, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Precondition reports a host that must not be touched. Nothing was mutated.
func Precondition(message string, cause error) *Error {
	return Wrap(PreconditionFail, message, cause)
}

// StepFailed reports a deploy step that failed partway through a pipeline.
// Earlier steps remain applied.
func StepFailed(step string, cause error) *Error {
	return Wrap(StepFail, fmt.Sprintf("step %s failed", step), cause)
}

// Config reports an invalid manifest or flag combination.
func Config(message string, cause error) *Error {
	return Wrap(ConfigError, message, cause)
}

// Get extracts the exit code from err. nil maps to Success and
// errors without a code map to GeneralError.
func Get(err error) int {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return GeneralError
}
