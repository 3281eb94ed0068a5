package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrStateConflict
	ErrAuthorization
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Current interface{} `json:"current,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

// StateConflict carries the current stored state so the caller can reload
// and decide whether to retry.
func StateConflict(message string, current interface{}) *AppError {
	return &AppError{
		Code:    ErrStateConflict,
		Message: message,
		Current: current,
	}
}

func Authorization(message string) *AppError {
	return &AppError{
		Code:    ErrAuthorization,
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
