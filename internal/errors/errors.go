package errors

import (
	stderrors "errors"
	"fmt"
	"syscall"
)

// Error is the structured error type for timelog.
// It provides rich context for error handling, logging, and user presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_201_WRITE_FAILURE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work against the package sentinels.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidConfiguration creates an error for a rejected configuration value.
func InvalidConfiguration(message string) *Error {
	return New(ErrCodeInvalidConfiguration, message, nil)
}

// WriteFailure creates an error for a failed append. A full device is
// reported as a fatal WriteFailure caused by ErrDiskFull.
func WriteFailure(path string, cause error) *Error {
	if cause != nil && stderrors.Is(cause, syscall.ENOSPC) {
		e := New(ErrCodeWriteFailure, "write operation failed", New(ErrCodeDiskFull, "no space left on device", cause))
		e.Severity = SeverityFatal
		return e.WithDetail("path", path).WithSuggestion("Free disk space or point the log directory at another volume")
	}
	return New(ErrCodeWriteFailure, "write operation failed", cause).WithDetail("path", path)
}

// PathResolutionFailure creates an error for a log path that could not be resolved.
func PathResolutionFailure(message string, cause error) *Error {
	return New(ErrCodePathResolution, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first Error in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from the first Error in the chain.
func GetCategory(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Category
	}
	return ""
}
