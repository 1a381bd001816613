// Package errors provides structured error types for trazo.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the pipeline, store, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the job-failed notification
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the taxonomy of the generation engine:
//   - INVALID_* / EMPTY_INPUT: input validation failures (recoverable, diagram unchanged)
//   - PIPELINE_TIMEOUT / CANCELLED: job-level failures (fatal to the job only)
//   - PERSISTENCE: blob store read/write failures
//   - EXPORT: rasterization or encoding failures
//   - INTERNAL: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyInput, "nothing to analyze")
//	if errors.Is(err, errors.ErrCodeEmptyInput) {
//	    // Surface to the user, keep the previous diagram
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodePersistence, origErr, "save workspace %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeEmptyInput       Code = "EMPTY_INPUT"
	ErrCodeInvalidVariant   Code = "INVALID_VARIANT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidWorkspace Code = "INVALID_WORKSPACE"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Job errors
	ErrCodePipelineTimeout Code = "PIPELINE_TIMEOUT"
	ErrCodeCancelled       Code = "CANCELLED"

	// Adapter errors
	ErrCodePersistence Code = "PERSISTENCE"
	ErrCodeExport      Code = "EXPORT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRecoverable reports whether the error leaves the system usable: input,
// job and adapter errors are; internal errors are not.
func IsRecoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeInternal, "":
		return false
	default:
		return true
	}
}

// TimeoutError reports a pipeline stage that exceeded its budget.
type TimeoutError struct {
	Stage  string
	Budget int64 // milliseconds
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %s exceeded %dms budget", e.Stage, e.Budget)
}

// Code returns the error code for this error type.
func (e *TimeoutError) Code() Code {
	return ErrCodePipelineTimeout
}
