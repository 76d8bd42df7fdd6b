// Package errors provides error code definitions shared across the sync core.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a class of failure that callers can branch on.
type ErrorCode string

const (
	// General errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
	ErrInvalid  ErrorCode = "INVALID_INPUT"
	ErrNotFound ErrorCode = "NOT_FOUND"

	// Local storage errors
	ErrStorage      ErrorCode = "STORAGE_ERROR"
	ErrCorruptQueue ErrorCode = "CORRUPT_QUEUE_DATA"

	// Sync errors
	ErrSyncInProgress      ErrorCode = "SYNC_IN_PROGRESS"
	ErrSyncUnauthenticated ErrorCode = "SYNC_UNAUTHENTICATED"
	ErrSyncStaleItem       ErrorCode = "SYNC_STALE_ITEM"
	ErrUnknownOperation    ErrorCode = "UNKNOWN_OPERATION"

	// Remote store errors
	ErrRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	ErrRemoteRejected    ErrorCode = "REMOTE_REJECTED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
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

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
