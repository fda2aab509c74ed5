// internal/types.go - Common types for internal packages
package internal

import "errors"

// Error represents application-specific errors
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new application error
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode constants for common error types
const (
	ErrorCodeConnection = "CONNECTION_ERROR"
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeGeometry   = "INVALID_GEOMETRY"
	ErrorCodeFetch      = "TILE_FETCH_ERROR"
	ErrorCodeDecode     = "IMAGE_DECODE_ERROR"
	ErrorCodeLedger     = "INVALID_LEDGER"
	ErrorCodeFileSystem = "FILESYSTEM_ERROR"
)

// IsFatal reports whether an error must abort a whole run rather than a
// single tile. Fetch and decode failures are scoped to one tile and can be
// retried on the next run; every other application error, ledger and
// filesystem failures in particular, poisons the run. Errors from outside
// the application, stray network faults included, stay tile-scoped.
func IsFatal(err error) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case ErrorCodeFetch, ErrorCodeDecode:
		return false
	}
	return true
}
