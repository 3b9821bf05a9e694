// Package runner executes registered specs.
//
// A Runner drains a Registry exactly once. Specs run strictly one after
// another, each through four phases:
//
//  1. invoke the body with a fresh *Tools, recovering panics
//  2. if the body called Async, wait for done, the timeout or cancellation
//  3. restore every observation the spec made
//  4. freeze the outcome and hand it to the Reporter
//
// State moves Idle → Draining → Complete and never back.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/observe"
)

// DefaultTimeout bounds the wait for an async spec.
const DefaultTimeout = 5000 * time.Millisecond

// State is the lifecycle position of a Runner.
type State int32

const (
	StateIdle State = iota
	StateDraining
	StateComplete
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Runner is the run scheduler.
type Runner struct {
	registry *Registry
	reporter Reporter
	logger   *slog.Logger
	timeout  time.Duration
	clock    Clock
	ids      IDGenerator
	matchers *matcher.Registry
	filter   string

	state atomic.Int32
}

// Option configures a Runner.
type Option func(*Runner)

// WithReporter sets the reporter. Default: NopReporter().
func WithReporter(r Reporter) Option {
	return func(rn *Runner) {
		if r != nil {
			rn.reporter = r
		}
	}
}

// WithLogger sets the logger. Default: slog.Default() tagged with
// component=runner.
func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) {
		if l != nil {
			rn.logger = l
		}
	}
}

// WithTimeout sets the async wait bound. Default: DefaultTimeout.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(rn *Runner) {
		if d > 0 {
			rn.timeout = d
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(rn *Runner) {
		if c != nil {
			rn.clock = c
		}
	}
}

// WithIDGenerator replaces the run ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(rn *Runner) {
		if g != nil {
			rn.ids = g
		}
	}
}

// WithMatcherRegistry sets the custom matcher registry. Default:
// matcher.Default.
func WithMatcherRegistry(m *matcher.Registry) Option {
	return func(rn *Runner) {
		if m != nil {
			rn.matchers = m
		}
	}
}

// WithFilter restricts the run to specs whose description matches the
// doublestar glob pattern. The filter applies after focus selection.
func WithFilter(pattern string) Option {
	return func(rn *Runner) {
		rn.filter = pattern
	}
}

// New creates an idle Runner over reg.
func New(reg *Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: reg,
		reporter: NopReporter(),
		logger:   slog.Default().With("component", "runner"),
		timeout:  DefaultTimeout,
		clock:    SystemClock(),
		ids:      UUIDv7Generator{},
		matchers: matcher.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// Run drains the registry and returns the summary. Per-spec failures never
// abort the run. If ctx is cancelled, the current async wait is abandoned
// and the remaining specs are reported as not run; the summary is still
// produced.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if r.filter != "" && !doublestar.ValidatePattern(r.filter) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, r.filter)
	}
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateDraining)) {
		return nil, ErrAlreadyRun
	}
	defer r.state.Store(int32(StateComplete))

	r.registry.Seal()
	r.matchers.Seal()
	defer r.matchers.Unseal()

	specs, focused := r.registry.effective()
	specs = r.applyFilter(specs)

	summary := &Summary{
		RunID:     r.ids.Generate(),
		StartedAt: r.clock.Now(),
		Focused:   focused,
		Filter:    r.filter,
	}
	r.logger.Info("run starting",
		"run_id", summary.RunID,
		"specs", len(specs),
		"focused", focused)

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			r.skip(specs[i:], context.Cause(ctx), summary)
			break
		}
		summary.add(r.runSpec(ctx, spec))
	}

	summary.Duration = r.clock.Now().Sub(summary.StartedAt)
	r.reporter.LogSummary(summary.Passed, summary.Total)
	r.logger.Info("run complete",
		"run_id", summary.RunID,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"total", summary.Total)
	return summary, nil
}

func (r *Runner) applyFilter(specs []Spec) []Spec {
	if r.filter == "" {
		return specs
	}
	var out []Spec
	for _, s := range specs {
		// The pattern was validated in Run, so Match cannot fail here.
		if ok, _ := doublestar.Match(r.filter, s.Description); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r *Runner) runSpec(ctx context.Context, spec Spec) SpecResult {
	start := r.clock.Now()
	r.reporter.LogDescription(spec.Description)
	r.logger.Debug("spec starting", "spec", spec.Description)

	logger := r.logger.With("spec", spec.Description)
	exec := newExecution(spec.Description, logger)
	observations := observe.NewManager(logger)
	tools := &Tools{
		exec:         exec,
		observations: observations,
		matchers:     r.matchers,
		logger:       logger,
	}

	func() {
		defer observations.RestoreAll()
		if r.invoke(spec, tools) {
			return
		}
		r.await(ctx, exec)
	}()

	diagnostics, errs := exec.freeze()
	for _, msg := range errs {
		r.reporter.LogError(msg)
	}
	r.reporter.LogResult(diagnostics)

	res := SpecResult{
		Description: spec.Description,
		Focused:     spec.Focused,
		Passed:      Passed(diagnostics),
		Diagnostics: diagnostics,
		Errors:      errs,
		Duration:    r.clock.Now().Sub(start),
	}
	r.logger.Debug("spec finished",
		"spec", spec.Description,
		"passed", res.Passed,
		"diagnostics", len(diagnostics))
	return res
}

// invoke runs the body and reports whether it panicked.
func (r *Runner) invoke(spec Spec, tools *Tools) (panicked bool) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		panicked = true
		err := &SpecBodyError{
			Description: spec.Description,
			Value:       v,
			Stack:       string(debug.Stack()),
		}
		tools.exec.failWithError(MatcherPanic, err.Error())
		r.logger.Error("spec panicked",
			"spec", spec.Description,
			"panic", fmt.Sprint(v),
			"stack", err.Stack)
	}()
	spec.Body(tools)
	return false
}

// await blocks until the spec's async callback signals done, the timeout
// elapses, or ctx is cancelled. Specs that never called Async return
// immediately.
func (r *Runner) await(ctx context.Context, exec *execution) {
	done := exec.asyncDone()
	if done == nil {
		return
	}
	select {
	case <-done:
		return
	default:
	}

	timer := r.clock.After(r.timeout)
	select {
	case <-done:
	case <-timer:
		err := &AsyncTimeoutError{Description: exec.description, Timeout: r.timeout}
		exec.failWithError(MatcherAsync, err.Error())
		r.logger.Warn("async spec timed out",
			"spec", exec.description,
			"timeout", r.timeout)
	case <-ctx.Done():
		exec.failWithError(MatcherAsync, fmt.Sprintf("Async wait aborted: %v", context.Cause(ctx)))
	}
}

// skip reports specs that were never started because the run was cancelled.
func (r *Runner) skip(specs []Spec, cause error, summary *Summary) {
	msg := fmt.Sprintf("Spec not run: %v", cause)
	r.logger.Warn("run cancelled", "remaining", len(specs), "cause", cause)
	for _, spec := range specs {
		d := matcher.Diagnostic{Passed: false, Matcher: MatcherNotRun, Message: msg}
		r.reporter.LogDescription(spec.Description)
		r.reporter.LogError(msg)
		r.reporter.LogResult([]matcher.Diagnostic{d})
		summary.add(SpecResult{
			Description: spec.Description,
			Focused:     spec.Focused,
			NotRun:      true,
			Diagnostics: []matcher.Diagnostic{d},
			Errors:      []string{msg},
		})
	}
}
