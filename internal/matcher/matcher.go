// Package matcher binds an actual value to the assertion methods a spec
// body calls (ToBe, ToEqual, ToHaveBeenCalled, ...).
//
// Every matcher call appends exactly one Diagnostic to its Sink, pass or
// fail, so a report can show how many assertions ran. Matchers never panic
// on a failed comparison and never return a value.
package matcher

import (
	"errors"
	"fmt"

	"github.com/roach88/janus/internal/render"
	"github.com/roach88/janus/internal/validate"
)

// Built-in matcher names, as they appear in Diagnostic.Matcher.
const (
	NameToBe                  = "toBe"
	NameToEqual               = "toEqual"
	NameToHaveBeenCalled      = "toHaveBeenCalled"
	NameToHaveBeenCalledTimes = "toHaveBeenCalledTimes"
	NameToHaveBeenCalledWith  = "toHaveBeenCalledWith"
)

// Diagnostic is the recorded result of one matcher call.
type Diagnostic struct {
	Passed  bool   `json:"passed"`
	Matcher string `json:"matcher,omitempty"`
	Message string `json:"message,omitempty"`
}

// Sink receives diagnostics. The spec runtime implements it.
type Sink interface {
	Record(d Diagnostic)
}

// AssertionFailure describes a failed comparison.
type AssertionFailure struct {
	Matcher  string
	Actual   string
	Expected string
	Verb     string
}

// Error implements the error interface.
func (e *AssertionFailure) Error() string {
	return fmt.Sprintf("Expected %s %s %s", e.Actual, e.Verb, e.Expected)
}

// Matchers is the assertion surface returned by Expect.
type Matchers struct {
	sink     Sink
	actual   any
	registry *Registry
}

// New binds actual to sink. A nil registry falls back to Default.
func New(sink Sink, actual any, registry *Registry) *Matchers {
	if registry == nil {
		registry = Default
	}
	return &Matchers{sink: sink, actual: actual, registry: registry}
}

// ToBe expects actual and expected to be the exact same value.
func (m *Matchers) ToBe(expected any) {
	m.compare(NameToBe, "to be", validate.Exact(m.actual, expected), expected)
}

// ToEqual expects actual and expected to be deeply equal.
func (m *Matchers) ToEqual(expected any) {
	m.compare(NameToEqual, "to equal", validate.DeepEqual(m.actual, expected), expected)
}

// ToHaveBeenCalled expects the observation to have recorded a call.
func (m *Matchers) ToHaveBeenCalled() {
	ok, err := validate.WasObserved(m.actual)
	if err != nil {
		m.notObserved(NameToHaveBeenCalled, err)
		return
	}
	m.record(NameToHaveBeenCalled, ok, "Expected function to have been called")
}

// ToHaveBeenCalledTimes expects the observation to have recorded exactly n
// calls.
func (m *Matchers) ToHaveBeenCalledTimes(n int) {
	ok, err := validate.ObservedCallCount(m.actual, n)
	if err != nil {
		m.notObserved(NameToHaveBeenCalledTimes, err)
		return
	}
	calls := 0
	if obs, err := validate.AsObserved(m.actual); err == nil {
		calls = obs.CallCount()
	}
	m.record(NameToHaveBeenCalledTimes, ok,
		fmt.Sprintf("Expected function to have been called %d times. Actual calls: %d", n, calls))
}

// ToHaveBeenCalledWith expects the most recent call to have received args.
func (m *Matchers) ToHaveBeenCalledWith(args ...any) {
	ok, err := validate.ObservedLastCallArgs(m.actual, args)
	if err != nil {
		m.notObserved(NameToHaveBeenCalledWith, err)
		return
	}
	actual := "no call"
	if obs, err := validate.AsObserved(m.actual); err == nil {
		if last, called := obs.LastArgs(); called {
			actual = render.Args(last)
		}
	}
	m.record(NameToHaveBeenCalledWith, ok,
		fmt.Sprintf("Expected function to have been called with %s. Actual call was %s", render.Args(args), actual))
}

// To runs the custom matcher registered under name.
func (m *Matchers) To(name string, expected any) {
	v, ok := m.registry.Lookup(name)
	if !ok {
		m.record(name, false, fmt.Sprintf("Unknown matcher %q", name))
		return
	}
	passed, err := v(m.actual, expected)
	if err != nil {
		m.record(name, false, fmt.Sprintf("Expected %s to satisfy %s: %v", render.Render(m.actual), name, err))
		return
	}
	m.compare(name, "to satisfy "+name+" with", passed, expected)
}

func (m *Matchers) compare(name, verb string, passed bool, expected any) {
	var msg string
	if !passed {
		msg = (&AssertionFailure{
			Matcher:  name,
			Actual:   render.Render(m.actual),
			Expected: render.Render(expected),
			Verb:     verb,
		}).Error()
	}
	m.record(name, passed, msg)
}

func (m *Matchers) notObserved(name string, err error) {
	var notObserved *validate.NotObservedError
	if errors.As(err, &notObserved) {
		m.record(name, false, fmt.Sprintf("Expected %s to be an observed function (%v)", notObserved.Value, err))
		return
	}
	m.record(name, false, err.Error())
}

func (m *Matchers) record(name string, passed bool, failure string) {
	d := Diagnostic{Passed: passed, Matcher: name}
	if !passed {
		d.Message = failure
	}
	m.sink.Record(d)
}
