package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrStaleTransition is returned when a status update would move a job backwards
	// or out of a terminal state. The stored record is left untouched.
	ErrStaleTransition = errors.New("job status transition not allowed from current status")

	// ErrQueueFull is returned when the report pool cannot accept more work
	ErrQueueFull = errors.New("report queue is full")

	// ErrPoolStopped is returned when submitting to a pool that is shutting down
	ErrPoolStopped = errors.New("report pool is stopped")

	// ErrInvalidTask is returned when a queued report task cannot be decoded
	ErrInvalidTask = errors.New("invalid report task")
)

// ValidationError describes client input that was rejected
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Value)
	}
	return e.Message
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, value, message string) error {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// TransportError wraps a failure of an external collaborator (store, email, queue)
type TransportError struct {
	Component string
	Err       error
}

func (e *TransportError) Error() string {
	return e.Component + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err as a failure of component. Nil stays nil.
func NewTransportError(component string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Component: component, Err: err}
}
