package runner

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/observe"
)

// Matcher names used for diagnostics the runtime records itself.
const (
	MatcherPanic   = "panic"
	MatcherAsync   = "async"
	MatcherObserve = "observe"
	MatcherNotRun  = "notRun"
)

// execution holds the mutable state of one spec while it runs. Bodies and
// the goroutines they start may record concurrently with the scheduler's
// wait, so every field is guarded by mu.
type execution struct {
	mu          sync.Mutex
	description string
	diagnostics []matcher.Diagnostic
	errors      []string
	frozen      bool
	async       chan struct{}
	logger      *slog.Logger
}

func newExecution(description string, logger *slog.Logger) *execution {
	return &execution{description: description, logger: logger}
}

// Record implements matcher.Sink. Diagnostics arriving after the outcome is
// frozen are dropped.
func (e *execution) Record(d matcher.Diagnostic) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		e.logger.Debug("late diagnostic dropped",
			"spec", e.description,
			"matcher", d.Matcher,
			"passed", d.Passed)
		return
	}
	e.diagnostics = append(e.diagnostics, d)
}

func (e *execution) fail(name, message string) {
	e.Record(matcher.Diagnostic{Passed: false, Matcher: name, Message: message})
}

// failWithError records a failing diagnostic and queues message for the
// reporter's LogError.
func (e *execution) failWithError(name, message string) {
	e.fail(name, message)
	e.mu.Lock()
	e.errors = append(e.errors, message)
	e.mu.Unlock()
}

// armAsync creates the done channel. It returns false if one already exists.
func (e *execution) armAsync() (chan struct{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.async != nil {
		return nil, false
	}
	e.async = make(chan struct{})
	return e.async, true
}

func (e *execution) asyncDone() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.async
}

// freeze finalizes the outcome and returns copies of what was recorded.
func (e *execution) freeze() ([]matcher.Diagnostic, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frozen = true
	diags := append([]matcher.Diagnostic(nil), e.diagnostics...)
	errs := append([]string(nil), e.errors...)
	return diags, errs
}

// Tools is the surface a spec body uses. It is valid only for the duration
// of the spec it was handed to; Expect calls made after the spec finalized
// are ignored.
type Tools struct {
	exec         *execution
	observations *observe.Manager
	matchers     *matcher.Registry
	logger       *slog.Logger
}

// Description returns the description of the running spec.
func (t *Tools) Description() string {
	return t.exec.description
}

// Expect binds actual to the matcher surface.
func (t *Tools) Expect(actual any) *matcher.Matchers {
	return matcher.New(t.exec, actual, t.matchers)
}

// Observe replaces target's func field named method with a recording
// wrapper for the rest of the spec. passThrough defaults to true.
//
// On invalid input a failing diagnostic is recorded and nil is returned;
// matchers given the nil handle fail with "function was not observed".
func (t *Tools) Observe(target any, method string, passThrough ...bool) *observe.Observation {
	pass := true
	if len(passThrough) > 0 {
		pass = passThrough[0]
	}
	obs, err := t.observations.Observe(target, method, pass)
	if err != nil {
		t.exec.fail(MatcherObserve, fmt.Sprintf("Could not observe %q: %v", method, err))
		return nil
	}
	return obs
}

// Observed returns the active observation for target/method, or nil.
func (t *Tools) Observed(target any, method string) *observe.Observation {
	return t.observations.Lookup(target, method)
}

// Async marks the spec asynchronous. fn runs immediately with a done
// callback; after the body returns, the runner waits until done is called
// or the timeout elapses. done may be called from any goroutine and more
// than once. Only one Async call is allowed per spec.
func (t *Tools) Async(fn func(done func())) {
	if fn == nil {
		t.exec.fail(MatcherAsync, "Async called with a nil function")
		return
	}
	ch, ok := t.exec.armAsync()
	if !ok {
		t.exec.fail(MatcherAsync, ErrAsyncAlreadyRegistered.Error())
		return
	}
	var once sync.Once
	fn(func() { once.Do(func() { close(ch) }) })
}

// Logf writes a message to the runner's logger, tagged with the spec.
func (t *Tools) Logf(format string, args ...any) {
	t.logger.Info(fmt.Sprintf(format, args...))
}
