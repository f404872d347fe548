// Package errors provides structured error handling for timelog.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, path resolution)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeInvalidConfiguration = "ERR_101_INVALID_CONFIGURATION"
	ErrCodeConfigNotFound       = "ERR_102_CONFIG_NOT_FOUND"
	ErrCodeConfigParse          = "ERR_103_CONFIG_PARSE"

	// IO errors (200-299)
	ErrCodeWriteFailure   = "ERR_201_WRITE_FAILURE"
	ErrCodePathResolution = "ERR_202_PATH_RESOLUTION"
	ErrCodeDiskFull       = "ERR_203_DISK_FULL"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// Sentinels for errors.Is comparisons. Matching is by code, so any error
// built with the same code matches regardless of message or cause.
var (
	ErrInvalidConfiguration = &Error{Code: ErrCodeInvalidConfiguration}
	ErrWriteFailure         = &Error{Code: ErrCodeWriteFailure}
	ErrPathResolution       = &Error{Code: ErrCodePathResolution}
	ErrConfigNotFound       = &Error{Code: ErrCodeConfigNotFound}
	ErrConfigParse          = &Error{Code: ErrCodeConfigParse}
	ErrDiskFull             = &Error{Code: ErrCodeDiskFull}
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_INVALID_CONFIGURATION")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	if code == ErrCodeDiskFull {
		return SeverityFatal
	}
	return SeverityError
}
