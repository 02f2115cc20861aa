// Package errors defines the error codes shared by the measurement toolkit.
package errors

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeUnknown       = "UNKNOWN_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeMeasureError  = "MEASURE_ERROR"
	CodeEncodeError   = "ENCODE_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeStorageError  = "STORAGE_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError is an error with a stable code, a human message and an
// optional cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code, so errors.Is works against the sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an AppError without a cause.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
	ErrNotFound      = New(CodeNotFound, "resource not found")
	ErrMeasureError  = New(CodeMeasureError, "measurement failed")
	ErrEncodeError   = New(CodeEncodeError, "encoding failed")
	ErrDatabaseError = New(CodeDatabaseError, "database error")
	ErrStorageError  = New(CodeStorageError, "storage error")
	ErrConfigError   = New(CodeConfigError, "configuration error")
)

// IsInvalidInput reports whether err carries the invalid input code.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound reports whether err carries the not found code.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMeasureError reports whether err carries the measurement code.
func IsMeasureError(err error) bool {
	return errors.Is(err, ErrMeasureError)
}

// IsDatabaseError reports whether err carries the database code.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsStorageError reports whether err carries the storage code.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageError)
}

// Code extracts the error code, CodeUnknown when err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Message extracts the human message, falling back to err.Error().
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
