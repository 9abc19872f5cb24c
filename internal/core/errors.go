package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	ErrMalformedResponse = errors.New("malformed models response")
	ErrMissingModels     = errors.New("models field missing from response")
	ErrViewNotFound      = errors.New("view not found")
	ErrAlreadyMounted    = errors.New("view already mounted")
	ErrNotMounted        = errors.New("view not mounted")
	ErrUnmounted         = errors.New("view unmounted before fetch completed")
)

// Error codes
const (
	ErrCodeConfigLoadFailed = "CONFIG_LOAD_FAILED"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
)

// AppError carries an error code, a readable message and an optional cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppErrorf creates an AppError with a formatted message.
func NewAppErrorf(code string, cause error, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ErrConfigLoadFailed reports a configuration source that could not be read.
func ErrConfigLoadFailed(source string, cause error) *AppError {
	return NewAppErrorf(ErrCodeConfigLoadFailed, cause, "Failed to load %s configuration", source)
}

// ErrInvalidConfig reports a configuration value that failed validation.
func ErrInvalidConfig(field, reason string) *AppError {
	return NewAppErrorf(ErrCodeInvalidConfig, nil, "Invalid configuration for %s: %s", field, reason)
}
