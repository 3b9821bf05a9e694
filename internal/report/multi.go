package report

import (
	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/runner"
)

// Multi fans every call out to its reporters in order.
type Multi []runner.Reporter

// LogDescription implements runner.Reporter.
func (m Multi) LogDescription(description string) {
	for _, r := range m {
		r.LogDescription(description)
	}
}

// LogError implements runner.Reporter.
func (m Multi) LogError(message string) {
	for _, r := range m {
		r.LogError(message)
	}
}

// LogResult implements runner.Reporter.
func (m Multi) LogResult(diagnostics []matcher.Diagnostic) {
	for _, r := range m {
		r.LogResult(diagnostics)
	}
}

// LogSummary implements runner.Reporter.
func (m Multi) LogSummary(passed, total int) {
	for _, r := range m {
		r.LogSummary(passed, total)
	}
}

// Replay feeds a finished run to r in the order the runner reported it.
func Replay(summary *runner.Summary, r runner.Reporter) {
	for _, res := range summary.Results {
		r.LogDescription(res.Description)
		for _, msg := range res.Errors {
			r.LogError(msg)
		}
		r.LogResult(res.Diagnostics)
	}
	r.LogSummary(summary.Passed, summary.Total)
}
