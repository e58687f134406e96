// Package domain defines the core domain models for busstate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form BS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "BS-SAGA-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.

func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.

func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.

func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Saga errors (SAGA).
var (
	// ErrSagaNotFound indicates no state is stored for the saga.
	ErrSagaNotFound = NewDomainError("BS-SAGA-4040", "saga not found")

	// ErrSagaVersionConflict indicates an optimistic concurrency conflict.
	ErrSagaVersionConflict = NewDomainError("BS-SAGA-4090", "saga version conflict, reload and retry")

	// ErrSagaIDInvalid indicates a nil or malformed saga id.
	ErrSagaIDInvalid = NewDomainError("BS-SAGA-4000", "invalid saga id")

	// ErrSagaStateEmpty indicates a save without any state.
	ErrSagaStateEmpty = NewDomainError("BS-SAGA-4001", "saga state is empty")
)

// Message errors (MSG).
var (
	// ErrMessageIDInvalid indicates a malformed message id.
	ErrMessageIDInvalid = NewDomainError("BS-MSG-4000", "invalid message id")

	// ErrMessageTypeInvalid indicates an empty or malformed message type.
	ErrMessageTypeInvalid = NewDomainError("BS-MSG-4001", "invalid message type")
)

// Subscription errors (SUB).
var (
	// ErrEndpointInvalid indicates an empty or malformed endpoint.
	ErrEndpointInvalid = NewDomainError("BS-SUB-4000", "invalid endpoint")
)

// System errors (SYS).
var (
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("BS-SYS-5000", "internal error")
)
