package runner

import (
	"time"

	"github.com/roach88/janus/internal/matcher"
)

// NoAssertionsMessage is reported for a spec that recorded no diagnostics.
const NoAssertionsMessage = "No tests were run"

// Reporter receives the progress of a run. Calls arrive in order from the
// scheduler goroutine: for each spec LogDescription, zero or more LogError,
// then LogResult; LogSummary once at the end.
type Reporter interface {
	LogDescription(description string)
	LogResult(diagnostics []matcher.Diagnostic)
	LogError(message string)
	LogSummary(passed, total int)
}

type nopReporter struct{}

func (nopReporter) LogDescription(string)          {}
func (nopReporter) LogResult([]matcher.Diagnostic) {}
func (nopReporter) LogError(string)                {}
func (nopReporter) LogSummary(int, int)            {}

// NopReporter returns a Reporter that discards everything.
func NopReporter() Reporter { return nopReporter{} }

// SpecResult is the frozen outcome of one spec.
type SpecResult struct {
	Description string               `json:"description"`
	Focused     bool                 `json:"focused,omitempty"`
	Passed      bool                 `json:"passed"`
	NotRun      bool                 `json:"not_run,omitempty"`
	Diagnostics []matcher.Diagnostic `json:"diagnostics"`
	Errors      []string             `json:"errors,omitempty"`
	Duration    time.Duration        `json:"duration_ns"`
}

// Failures returns the failing diagnostics.
func (r SpecResult) Failures() []matcher.Diagnostic {
	var out []matcher.Diagnostic
	for _, d := range r.Diagnostics {
		if !d.Passed {
			out = append(out, d)
		}
	}
	return out
}

// Summary describes a completed run.
type Summary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Focused   bool          `json:"focused"`
	Filter    string        `json:"filter,omitempty"`
	Results   []SpecResult  `json:"results"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Total     int           `json:"total"`
}

// OK reports whether no spec failed.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

func (s *Summary) add(r SpecResult) {
	s.Results = append(s.Results, r)
	s.Total++
	if r.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Passed reports whether diagnostics make a passing outcome: at least one
// diagnostic, and every diagnostic passed.
func Passed(diagnostics []matcher.Diagnostic) bool {
	if len(diagnostics) == 0 {
		return false
	}
	for _, d := range diagnostics {
		if !d.Passed {
			return false
		}
	}
	return true
}
