package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors. ErrTransient marks failures worth retrying
// (network, timeout); everything else is terminal for the batch in progress.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAuthentication  = errors.New("authentication failed")
	ErrTransient       = errors.New("transient service error")
	ErrInvalidMedia    = errors.New("unreadable media file")
	ErrNoIdentifier    = errors.New("no identifier found")
	ErrUploadExhausted = errors.New("upload retries exhausted")
)

// NewAppError constructs an AppError wrapping cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Transient wraps err so that errors.Is(err, ErrTransient) holds, preserving
// the original message.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// IsTransient reports whether err is a retryable service failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
