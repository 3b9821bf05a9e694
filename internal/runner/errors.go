package runner

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRegistrySealed is returned by Test and FocusTest once a run has
	// started draining the registry.
	ErrRegistrySealed = errors.New("spec registry is sealed")

	// ErrAlreadyRun is returned by Run on a runner that is not idle.
	ErrAlreadyRun = errors.New("runner has already run")

	// ErrAsyncAlreadyRegistered is recorded when a spec calls Async twice.
	ErrAsyncAlreadyRegistered = errors.New("async callback already registered for this spec")

	// ErrEmptyDescription is returned when registering a spec without a
	// description.
	ErrEmptyDescription = errors.New("spec description must not be empty")

	// ErrNilBody is returned when registering a spec without a body.
	ErrNilBody = errors.New("spec body must not be nil")

	// ErrInvalidFilter is returned by Run when the description filter is not
	// a valid glob pattern.
	ErrInvalidFilter = errors.New("invalid description filter")
)

// SpecBodyError is recorded when a spec body panics.
type SpecBodyError struct {
	// Description identifies the spec.
	Description string

	// Value is the recovered panic value.
	Value any

	// Stack is the goroutine stack at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *SpecBodyError) Error() string {
	return fmt.Sprintf("Spec body panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *SpecBodyError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AsyncTimeoutError is recorded when an async spec does not signal done
// within the configured timeout.
type AsyncTimeoutError struct {
	Description string
	Timeout     time.Duration
}

// Error implements the error interface.
func (e *AsyncTimeoutError) Error() string {
	return fmt.Sprintf("Async callback not called within %d milliseconds", e.Timeout.Milliseconds())
}

// IsTimeout reports whether err is or wraps an AsyncTimeoutError.
func IsTimeout(err error) bool {
	var te *AsyncTimeoutError
	return errors.As(err, &te)
}
