package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
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

// Common application errors, one per failure class of the upload flow.
var (
	ErrPermissionDenied  = errors.New("file access denied")
	ErrTransport         = errors.New("transport failure")
	ErrBackend           = errors.New("backend rejected upload")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrPersistence       = errors.New("history persistence failure")
	ErrUploadInFlight    = errors.New("upload already in flight")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
