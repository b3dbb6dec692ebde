package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeTransport   ErrorType = "TRANSPORT"
	ErrorTypePersistence ErrorType = "PERSISTENCE"
	ErrorTypeNotFound    ErrorType = "NOT_FOUND"
	ErrorTypeOffline     ErrorType = "OFFLINE"
	ErrorTypeValidation  ErrorType = "VALIDATION"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewTransport creates an error for a failed network fetch or decode
func NewTransport(message string, err error) error {
	return &AppError{Type: ErrorTypeTransport, Message: message, Err: err}
}

// NewPersistence creates an error for a failed store read or write
func NewPersistence(message string, err error) error {
	return &AppError{Type: ErrorTypePersistence, Message: message, Err: err}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewOffline creates an error for an operation refused because the network is unreachable
func NewOffline(message string) error {
	return &AppError{Type: ErrorTypeOffline, Message: message}
}

// NewValidation creates a validation error
func NewValidation(message string, err error) error {
	return &AppError{Type: ErrorTypeValidation, Message: message, Err: err}
}

// Wrap wraps an error with additional context, preserving an AppError's type
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{Type: ErrorTypePersistence, Message: message, Err: err}
}

func hasType(err error, t ErrorType) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Type == t
}

// IsTransport checks if an error is a transport error
func IsTransport(err error) bool { return hasType(err, ErrorTypeTransport) }

// IsPersistence checks if an error is a persistence error
func IsPersistence(err error) bool { return hasType(err, ErrorTypePersistence) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsOffline checks if an error is an offline error
func IsOffline(err error) bool { return hasType(err, ErrorTypeOffline) }

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return hasType(err, ErrorTypeValidation) }
