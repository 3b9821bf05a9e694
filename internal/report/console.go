// Package report implements the run Reporter: a console renderer, a JSON
// event stream, a go test bridge and a fan-out.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/roach88/janus/internal/matcher"
	"github.com/roach88/janus/internal/runner"
)

// ColorMode selects whether the console reporter emits ANSI colors.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(s)); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

const failureIndent = "      "

// Console writes the human-readable report:
//
//	adds numbers
//	> [✔] Passed!
//
//	compares slices
//	> [✖] Failed.
//	      Expected [1,2] to equal [1,2,3]
//
//	Test Summary: 1 passed, 1 failed, 2 total
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	pass lipgloss.Style
	fail lipgloss.Style
}

// NewConsole creates a console reporter writing to w.
func NewConsole(w io.Writer, mode ColorMode) *Console {
	r := lipgloss.NewRenderer(w)
	if useColor(w, mode) {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Console{
		w:    w,
		pass: r.NewStyle().Foreground(lipgloss.Color("10")),
		fail: r.NewStyle().Foreground(lipgloss.Color("11")).Background(lipgloss.Color("9")),
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogDescription implements runner.Reporter.
func (c *Console) LogDescription(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, description)
}

// LogError implements runner.Reporter.
func (c *Console) LogError(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.line(c.fail, "> ERROR: "+message)
}

// LogResult implements runner.Reporter.
func (c *Console) LogResult(diagnostics []matcher.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case len(diagnostics) == 0:
		c.line(c.fail, "> ERROR: "+runner.NoAssertionsMessage)
	case runner.Passed(diagnostics):
		c.line(c.pass, "> [✔] Passed!")
	default:
		c.line(c.fail, "> [✖] Failed.")
		for _, d := range diagnostics {
			if d.Passed {
				continue
			}
			for _, l := range strings.Split(d.Message, "\n") {
				c.line(c.fail, failureIndent+l)
			}
		}
	}
	fmt.Fprintln(c.w)
}

// LogSummary implements runner.Reporter.
func (c *Console) LogSummary(passed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "Test Summary: %d passed, %d failed, %d total\n", passed, total-passed, total)
}

// line styles one line at a time; lipgloss pads multi-line blocks to a
// common width.
func (c *Console) line(style lipgloss.Style, text string) {
	fmt.Fprintln(c.w, style.Render(text))
}
