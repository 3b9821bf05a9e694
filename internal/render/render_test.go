package render

import (
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/janus/internal/observe"
)

type fakeRecorder struct {
	args []any
	ok   bool
}

func (f *fakeRecorder) LastArgs() ([]any, bool) { return f.args, f.ok }

type node struct {
	Next *node
	V    int
}

func TestRender_QuotesStrings(t *testing.T) {
	assert.Equal(t, `"hello"`, Render("hello"))
}

func TestRender_NestedMaps(t *testing.T) {
	obj := map[string]any{
		"prop": map[string]any{"foo": "bar"},
	}
	assert.Equal(t, `{"prop":{"foo":"bar"}}`, Render(obj))
}

func TestRender_SortsMapKeys(t *testing.T) {
	assert.Equal(t, `{"a":2,"b":1}`, Render(map[string]int{"b": 1, "a": 2}))
}

func TestRender_Primitives(t *testing.T) {
	assert.Equal(t, "null", Render(nil))
	assert.Equal(t, "42", Render(42))
	assert.Equal(t, "7", Render(uint8(7)))
	assert.Equal(t, "1.5", Render(1.5))
	assert.Equal(t, "true", Render(true))
}

func TestRender_NilReferences(t *testing.T) {
	var p *node
	var s []int
	var m map[string]int
	var fn func()
	assert.Equal(t, "null", Render(p))
	assert.Equal(t, "null", Render(s))
	assert.Equal(t, "null", Render(m))
	assert.Equal(t, "null", Render(fn))
}

func TestRender_Sequences(t *testing.T) {
	assert.Equal(t, "[1,2,3]", Render([]int{1, 2, 3}))
	assert.Equal(t, `["a","b"]`, Render([2]string{"a", "b"}))
	assert.Equal(t, "[]", Render([]int{}))
}

func TestRender_StructsIncludeUnexportedFields(t *testing.T) {
	v := struct {
		A int
		b string
	}{A: 1, b: "x"}
	assert.Equal(t, `{"A":1,"b":"x"}`, Render(v))
}

func TestRender_PointerCycle(t *testing.T) {
	n := &node{V: 1}
	n.Next = n
	assert.Equal(t, `{"Next":[Circular],"V":1}`, Render(n))
}

func TestRender_SharedPointerIsNotCircular(t *testing.T) {
	shared := &node{V: 2}
	pair := []*node{shared, shared}
	assert.Equal(t, `[{"Next":null,"V":2},{"Next":null,"V":2}]`, Render(pair))
}

func TestRender_NoHTMLEscaping(t *testing.T) {
	assert.Equal(t, `"<a&b>"`, Render("<a&b>"))
}

func TestRender_NFCNormalization(t *testing.T) {
	assert.Equal(t, "\"\u00e9\"", Render("e\u0301"))
}

func TestRender_Functions(t *testing.T) {
	assert.Equal(t, "[Function strings.ToUpper]", Render(strings.ToUpper))
}

func TestRender_Errors(t *testing.T) {
	assert.Equal(t, `error("boom")`, Render(errors.New("boom")))
}

func TestRender_Regexp(t *testing.T) {
	assert.Equal(t, "/a+/", Render(regexp.MustCompile("a+")))
}

func TestRender_Time(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, `"2020-01-02T03:04:05Z"`, Render(ts))
}

func TestRender_RecorderShowsLastCall(t *testing.T) {
	assert.Equal(t, `1, "x"`, Render(&fakeRecorder{args: []any{1, "x"}, ok: true}))
	assert.Equal(t, "[Observed function]", Render(&fakeRecorder{}))
}

func TestArgs(t *testing.T) {
	assert.Equal(t, `1, "a", null`, Args([]any{1, "a", nil}))
	assert.Equal(t, "", Args(nil))
}

func TestCompareUTF16(t *testing.T) {
	assert.Equal(t, 0, compareUTF16("a", "a"))
	assert.Equal(t, -1, compareUTF16("a", "b"))
	assert.Equal(t, 1, compareUTF16("ab", "a"))
	// U+1F600 sorts after U+FF61 in UTF-8 byte order but before it in UTF-16.
	assert.Equal(t, -1, compareUTF16("\U0001F600", "｡"))
}

func TestRender_ObservedFuncShowsLastCall(t *testing.T) {
	m := observe.NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	obj := &struct{ F func(n int, s string) }{F: func(int, string) {}}

	_, err := m.Observe(obj, "F", false)
	require.NoError(t, err)
	defer m.RestoreAll()

	assert.Equal(t, "[Observed function]", Render(obj.F))
	obj.F(1, "x")
	assert.Equal(t, `1, "x"`, Render(obj.F))
}
