// Package errors defines common error types for the Harmonia engine.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// Lookup errors
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	// Resolution errors
	ErrUnknownStrategy  = errors.New("unknown resolution strategy")
	ErrResolutionFailed = errors.New("resolution failed")
	ErrApprovalRequired = errors.New("resolution requires approval")

	// Event errors
	ErrQueueFull   = errors.New("event queue full")
	ErrStoreClosed = errors.New("event store closed")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRule  = errors.New("invalid business rule")
)

// HarmoniaError is a custom error type with additional context.
type HarmoniaError struct {
	Op      string // Operation that failed
	Kind    error  // Category of error
	Err     error  // Underlying error
	Details string // Additional details
}

// Error implements the error interface.
func (e *HarmoniaError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", e.Op, e.Kind, e.Err, e.Details)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error.
func (e *HarmoniaError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
func (e *HarmoniaError) Is(target error) bool {
	return errors.Is(e.Kind, target) || errors.Is(e.Err, target)
}

// E creates a new HarmoniaError.
func E(op string, kind error, err error, details ...string) error {
	e := &HarmoniaError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// Wrap wraps an error with operation context.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &HarmoniaError{
		Op:  op,
		Err: err,
	}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnknownStrategy checks if the error is an unknown strategy error.
func IsUnknownStrategy(err error) bool {
	return errors.Is(err, ErrUnknownStrategy)
}

// IsInvalidInput checks if the error is a validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidRule checks if the error is a business rule validation error.
func IsInvalidRule(err error) bool {
	return errors.Is(err, ErrInvalidRule)
}
