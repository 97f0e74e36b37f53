// Package errors provides structured error types for the bigstream engine.
//
// Error codes separate the failure classes that matter to callers:
//
//   - INVALID_*: configuration problems caught before any work is submitted
//     (fail fast, nothing has been written).
//   - TASK_FAILED: a distributed unit of work failed; the overall call aborts
//     and any output target written incrementally must be treated as
//     indeterminate.
//   - STORE_*: storage backend failures surfaced from reads and writes.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidTransform, "transform %d has shape %v", i, shape)
//	if errors.Is(err, errors.ErrCodeInvalidTransform) {
//	    // Handle configuration error
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors, raised before any task is submitted.
	ErrCodeInvalidTransform Code = "INVALID_TRANSFORM"
	ErrCodeSpacingMismatch  Code = "SPACING_MISMATCH"
	ErrCodeShapeMismatch    Code = "SHAPE_MISMATCH"
	ErrCodeInvalidBlocksize Code = "INVALID_BLOCKSIZE"
	ErrCodeInvalidOverlap   Code = "INVALID_OVERLAP"

	// Distributed execution errors.
	ErrCodeTaskFailed Code = "TASK_FAILED"

	// Storage errors.
	ErrCodeStoreRead    Code = "STORE_READ"
	ErrCodeStoreWrite   Code = "STORE_WRITE"
	ErrCodeStoreBounds  Code = "STORE_OUT_OF_BOUNDS"
	ErrCodeStoreCorrupt Code = "STORE_CORRUPT"

	// Internal errors.
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

// IsConfiguration reports whether err is a fail-fast configuration error,
// i.e. one raised by structural validation before any task was submitted.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidTransform, ErrCodeSpacingMismatch, ErrCodeShapeMismatch,
		ErrCodeInvalidBlocksize, ErrCodeInvalidOverlap:
		return true
	}
	return false
}
