// Package selftest registers specs that exercise janus with janus itself.
// The janus binary runs them by default.
package selftest

import (
	"io"
	"time"

	"github.com/roach88/janus/internal/render"
	"github.com/roach88/janus/internal/report"
	"github.com/roach88/janus/internal/runner"
	"github.com/roach88/janus/internal/validate"
)

// writerFunc adapts a func field to io.Writer so the field can be observed.
type writerFunc struct {
	WriteFunc func(p []byte) (int, error)
}

func (w *writerFunc) Write(p []byte) (int, error) {
	return w.WriteFunc(p)
}

var specs = []struct {
	description string
	body        runner.Body
}{
	{"The exact validator determines if 2 inputs are the same", func(t *runner.Tools) {
		t.Expect(validate.Exact("1", "1")).ToBe(true)
		t.Expect(validate.Exact([]int{1}, []int{1})).ToBe(false)
	}},
	{"The deep-equal validator determines if 2 inputs are equal", func(t *runner.Tools) {
		t.Expect(validate.DeepEqual(
			map[string]string{"prop": "value"},
			map[string]string{"prop": "value"},
		)).ToBe(true)
	}},
	{"Rendering surrounds strings with quotes", func(t *runner.Tools) {
		t.Expect(render.Render("hello")).ToBe(`"hello"`)
	}},
	{"Rendering can display nested maps", func(t *runner.Tools) {
		obj := map[string]any{"prop": map[string]any{"foo": "bar"}}
		t.Expect(render.Render(obj)).ToBe(`{"prop":{"foo":"bar"}}`)
	}},
	{"The console reporter writes its output", func(t *runner.Tools) {
		w := &writerFunc{WriteFunc: func(p []byte) (int, error) { return len(p), nil }}
		t.Observe(w, "WriteFunc", false)

		report.NewConsole(w, report.ColorAlways).LogSummary(1, 1)

		t.Expect(w.WriteFunc).ToHaveBeenCalled()
	}},
	{"Asynchronous actions can be performed inside specs", func(t *runner.Tools) {
		t.Async(func(done func()) {
			a := 100
			time.AfterFunc(100*time.Millisecond, func() {
				a = 200
				t.Expect(a).ToBe(200)
				done()
			})
		})
	}},
	{"Observed functions do not have to call through to the actual function", func(t *runner.Tools) {
		value := 100
		obj := &struct{ ChangeValue func() }{
			ChangeValue: func() { value = 200 },
		}

		t.Observe(obj, "ChangeValue", false)
		obj.ChangeValue()

		t.Expect(value).ToBe(100)
	}},
	{"Observed functions know what they were called with", func(t *runner.Tools) {
		value := 100
		obj := &struct{ ChangeValueTo func(int) }{
			ChangeValueTo: func(v int) { value = v },
		}

		t.Observe(obj, "ChangeValueTo")
		obj.ChangeValueTo(200)

		t.Expect(value).ToBe(200)
		t.Expect(obj.ChangeValueTo).ToHaveBeenCalledWith(200)
		t.Expect(t.Observed(obj, "ChangeValueTo")).ToHaveBeenCalledTimes(1)
	}},
}

var _ io.Writer = (*writerFunc)(nil)

// Register adds the self-test specs to reg.
func Register(reg *runner.Registry) error {
	for _, s := range specs {
		if err := reg.Test(s.description, s.body); err != nil {
			return err
		}
	}
	return nil
}
