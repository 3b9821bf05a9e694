package report

import (
	"strings"
	"sync"
	"testing"

	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/runner"
)

// Testing reports each spec as a subtest of t, so a registry can run under
// go test. Failing diagnostics become t.Error calls inside the subtest.
type Testing struct {
	t *testing.T

	mu          sync.Mutex
	description string
	errors      []string
}

// NewTesting creates a reporter bound to t. Run the runner on t's goroutine.
func NewTesting(t *testing.T) *Testing {
	return &Testing{t: t}
}

// LogDescription implements runner.Reporter.
func (r *Testing) LogDescription(description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.description = description
	r.errors = nil
}

// LogError implements runner.Reporter.
func (r *Testing) LogError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// LogResult implements runner.Reporter.
func (r *Testing) LogResult(diagnostics []matcher.Diagnostic) {
	r.mu.Lock()
	description, errs := r.description, r.errors
	r.mu.Unlock()

	r.t.Run(subtestName(description), func(t *testing.T) {
		for _, msg := range errs {
			t.Log(msg)
		}
		if len(diagnostics) == 0 {
			t.Error(runner.NoAssertionsMessage)
			return
		}
		for _, d := range diagnostics {
			if !d.Passed {
				t.Error(d.Message)
			}
		}
	})
}

// LogSummary implements runner.Reporter.
func (r *Testing) LogSummary(passed, total int) {
	r.t.Logf("Test Summary: %d passed, %d failed, %d total", passed, total-passed, total)
}

// subtestName keeps descriptions readable; go test replaces spaces with
// underscores in subtest names anyway.
func subtestName(description string) string {
	return strings.TrimSpace(description)
}
