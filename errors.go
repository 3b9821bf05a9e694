package janus

import (
	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/observe"
	"github.com/roach88/janus/internal/runner"
	"github.com/roach88/janus/internal/validate"
)

// Sentinel errors for inspection with errors.Is.
var (
	// ErrRegistrySealed is returned when a spec is registered after its
	// registry started running.
	ErrRegistrySealed = runner.ErrRegistrySealed

	// ErrEmptyDescription is returned for a blank spec description.
	ErrEmptyDescription = runner.ErrEmptyDescription

	// ErrNilBody is returned for a spec without a body.
	ErrNilBody = runner.ErrNilBody

	// ErrAlreadyRun is returned by a second call to Runner.Run.
	ErrAlreadyRun = runner.ErrAlreadyRun

	// ErrAsyncAlreadyRegistered is the failure recorded when a spec calls
	// Async twice.
	ErrAsyncAlreadyRegistered = runner.ErrAsyncAlreadyRegistered

	// ErrInvalidFilter is returned by Run for a malformed WithFilter pattern.
	ErrInvalidFilter = runner.ErrInvalidFilter

	// ErrMatcherRegistrySealed is returned by RegisterMatcher while a run is
	// in progress.
	ErrMatcherRegistrySealed = matcher.ErrRegistrySealed

	// ErrDuplicateMatcher is returned when a matcher name is already taken.
	ErrDuplicateMatcher = matcher.ErrDuplicateMatcher

	// ErrInvalidMatcher is returned for a matcher without a name or validator.
	ErrInvalidMatcher = matcher.ErrInvalidMatcher

	// ErrNotObserved is wrapped by failures of the call matchers when the
	// actual value is not an observation.
	ErrNotObserved = validate.ErrNotObserved

	// ErrInvalidTarget, ErrMethodNotFound and ErrNotCallable describe why
	// Observe could not replace a function.
	ErrInvalidTarget  = observe.ErrInvalidTarget
	ErrMethodNotFound = observe.ErrMethodNotFound
	ErrNotCallable    = observe.ErrNotCallable
)

// IsTimeout reports whether err is an async timeout.
func IsTimeout(err error) bool {
	return runner.IsTimeout(err)
}
