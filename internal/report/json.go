package report

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/runner"
)

// Event names written by the JSON reporter.
const (
	EventDescribe = "describe"
	EventError    = "error"
	EventResult   = "result"
	EventSummary  = "summary"
)

type describeEvent struct {
	Event       string `json:"event"`
	Description string `json:"description"`
}

type errorEvent struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

type resultEvent struct {
	Event       string               `json:"event"`
	Passed      bool                 `json:"passed"`
	Diagnostics []matcher.Diagnostic `json:"diagnostics"`
	Message     string               `json:"message,omitempty"`
}

type summaryEvent struct {
	Event  string `json:"event"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
	Total  int    `json:"total"`
}

// JSON writes one JSON object per reporter call (newline-delimited).
// Write errors are kept and returned by Err.
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSON creates a JSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSON{enc: enc}
}

// Err returns the first write error.
func (j *JSON) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *JSON) emit(v any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(v)
}

// LogDescription implements runner.Reporter.
func (j *JSON) LogDescription(description string) {
	j.emit(describeEvent{Event: EventDescribe, Description: description})
}

// LogError implements runner.Reporter.
func (j *JSON) LogError(message string) {
	j.emit(errorEvent{Event: EventError, Message: message})
}

// LogResult implements runner.Reporter.
func (j *JSON) LogResult(diagnostics []matcher.Diagnostic) {
	ev := resultEvent{Event: EventResult, Passed: runner.Passed(diagnostics), Diagnostics: diagnostics}
	if len(diagnostics) == 0 {
		ev.Diagnostics = []matcher.Diagnostic{}
		ev.Message = runner.NoAssertionsMessage
	}
	j.emit(ev)
}

// LogSummary implements runner.Reporter.
func (j *JSON) LogSummary(passed, total int) {
	j.emit(summaryEvent{Event: EventSummary, Passed: passed, Failed: total - passed, Total: total})
}
