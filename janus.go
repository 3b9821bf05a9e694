package janus

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/roach88/janus/internal/cli"
	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/observe"
	"github.com/roach88/janus/internal/report"
	"github.com/roach88/janus/internal/runner"
	"github.com/roach88/janus/internal/validate"
)

type (
	// Registry holds specs in registration order.
	Registry = runner.Registry
	// Spec is one registered spec.
	Spec = runner.Spec
	// Body is the function a spec runs.
	Body = runner.Body
	// Tools is handed to each spec body.
	Tools = runner.Tools
	// Runner drains a Registry once.
	Runner = runner.Runner
	// Option configures a Runner.
	Option = runner.Option
	// Reporter receives the progress of a run.
	Reporter = runner.Reporter
	// Clock supplies wall time and the async timer.
	Clock = runner.Clock
	// Summary describes a completed run.
	Summary = runner.Summary
	// SpecResult is the frozen outcome of one spec.
	SpecResult = runner.SpecResult
	// Diagnostic is one assertion outcome.
	Diagnostic = matcher.Diagnostic
	// Matchers is the surface returned by Tools.Expect.
	Matchers = matcher.Matchers
	// Validator decides a custom matcher.
	Validator = validate.Validator
	// Observation records the calls of an observed function.
	Observation = observe.Observation
	// ColorMode selects console coloring.
	ColorMode = report.ColorMode
)

// DefaultTimeout bounds the wait for an async spec.
const DefaultTimeout = runner.DefaultTimeout

// Console color modes.
const (
	ColorAuto   = report.ColorAuto
	ColorAlways = report.ColorAlways
	ColorNever  = report.ColorNever
)

// Runner options.
var (
	WithReporter    = runner.WithReporter
	WithLogger      = runner.WithLogger
	WithClock       = runner.WithClock
	WithIDGenerator = runner.WithIDGenerator
	WithFilter      = runner.WithFilter
)

// WithTimeout sets the async wait bound. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return runner.WithTimeout(d)
}

// Default is the registry used by the package-level Test and FocusTest.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return runner.NewRegistry()
}

// Test registers a spec on Default.
func Test(description string, body Body) error {
	return Default.Test(description, body)
}

// FocusTest registers a focused spec on Default. Once any spec is focused,
// only focused specs run.
func FocusTest(description string, body Body) error {
	return Default.FocusTest(description, body)
}

// RegisterMatcher adds a custom matcher, usable as Expect(x).To(name, y).
// It fails with ErrMatcherRegistrySealed while a run is in progress.
func RegisterMatcher(name string, v Validator) error {
	return matcher.Default.Register(name, v)
}

// New creates a runner over reg. Runners use the package logger unless
// WithLogger is given.
func New(reg *Registry, opts ...Option) *Runner {
	base := []Option{runner.WithLogger(Logger())}
	return runner.New(reg, append(base, opts...)...)
}

// Run drains reg and returns the summary.
func Run(ctx context.Context, reg *Registry, opts ...Option) (*Summary, error) {
	return New(reg, opts...).Run(ctx)
}

// RunT drains reg from a Go test, reporting each spec as a subtest of t.
func RunT(t *testing.T, reg *Registry, opts ...Option) *Summary {
	t.Helper()
	base := []Option{runner.WithReporter(report.NewTesting(t))}
	summary, err := Run(t.Context(), reg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("janus: %v", err)
	}
	return summary
}

// NewConsoleReporter returns the colored text reporter. Color is used when
// w is a terminal.
func NewConsoleReporter(w io.Writer) Reporter {
	return report.NewConsole(w, ColorAuto)
}

// NewJSONReporter returns a reporter writing newline-delimited JSON events.
func NewJSONReporter(w io.Writer) Reporter {
	return report.NewJSON(w)
}

// Main runs the janus command line over reg with os.Args and returns the
// exit code:
//
//	func main() {
//		os.Exit(janus.Main(janus.Default))
//	}
func Main(reg *Registry) int {
	return cli.Execute(context.Background(), reg, os.Args[1:], os.Stdout, os.Stderr)
}
