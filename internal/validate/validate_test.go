package validate

import (
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/janus/internal/observe"
)

type fakeObservation struct {
	calls [][]any
}

func (f *fakeObservation) CallCount() int { return len(f.calls) }

func (f *fakeObservation) LastArgs() ([]any, bool) {
	if len(f.calls) == 0 {
		return nil, false
	}
	return f.calls[len(f.calls)-1], true
}

type node struct {
	Next *node
	V    int
}

type point struct {
	X, y int
}

func TestExact_Primitives(t *testing.T) {
	assert.True(t, Exact("1", "1"))
	assert.True(t, Exact(1, 1))
	assert.True(t, Exact(nil, nil))
	assert.False(t, Exact(1, 2))
	assert.False(t, Exact(1, int64(1)), "no coercion across types")
	assert.False(t, Exact(nil, 0))
	assert.False(t, Exact("1", 1))
}

func TestExact_ReferenceVersusStructure(t *testing.T) {
	a := map[string]int{"a": 1}
	b := map[string]int{"a": 1}
	assert.False(t, Exact(a, b))
	assert.True(t, Exact(a, a))
	assert.True(t, DeepEqual(a, b))

	p1, p2 := &point{X: 1}, &point{X: 1}
	assert.False(t, Exact(p1, p2))
	assert.True(t, Exact(p1, p1))
}

func TestExact_StructValues(t *testing.T) {
	assert.True(t, Exact(point{X: 1, y: 2}, point{X: 1, y: 2}))
	assert.False(t, Exact(point{X: 1, y: 2}, point{X: 1, y: 3}))
}

func TestExact_Slices(t *testing.T) {
	s := []int{1, 2, 3}
	assert.True(t, Exact(s, s))
	assert.False(t, Exact(s, []int{1, 2, 3}))
	assert.False(t, Exact(s, s[:2]))
}

func TestDeepEqual_Sequences(t *testing.T) {
	assert.True(t, DeepEqual([]int{1, 2}, []int{1, 2}))
	assert.False(t, DeepEqual([]int{1, 2}, []int{1, 2, 3}))
	assert.False(t, DeepEqual([]int{1, 2, 3}, []int{1, 2}))
	assert.False(t, DeepEqual([]int{1, 2}, []int{2, 1}))
	assert.True(t, DeepEqual([2]string{"a", "b"}, [2]string{"a", "b"}))
}

func TestDeepEqual_NilOnlyEqualsNil(t *testing.T) {
	assert.True(t, DeepEqual(nil, nil))
	assert.False(t, DeepEqual(nil, 0))
	assert.False(t, DeepEqual("", nil))
	assert.False(t, DeepEqual([]int(nil), []int{}))
	assert.False(t, DeepEqual(map[string]int(nil), map[string]int{}))
}

func TestDeepEqual_DifferentTypesNeverEqual(t *testing.T) {
	assert.False(t, DeepEqual(1, int64(1)))
	assert.False(t, DeepEqual([]any{1}, []any{int32(1)}))
	assert.False(t, DeepEqual(map[string]any{"a": 1}, map[string]int{"a": 1}))
}

func TestDeepEqual_Maps(t *testing.T) {
	assert.True(t, DeepEqual(
		map[string]any{"prop": "value", "n": []int{1}},
		map[string]any{"n": []int{1}, "prop": "value"},
	))
	assert.False(t, DeepEqual(map[string]int{"a": 1}, map[string]int{"a": 2}))
}

func TestDeepEqual_MapKeySetIsSymmetric(t *testing.T) {
	small := map[string]int{"a": 1}
	large := map[string]int{"a": 1, "b": 2}
	assert.False(t, DeepEqual(small, large))
	assert.False(t, DeepEqual(large, small))
}

func TestDeepEqual_Structs(t *testing.T) {
	assert.True(t, DeepEqual(&point{X: 1, y: 2}, &point{X: 1, y: 2}))
	assert.False(t, DeepEqual(&point{X: 1, y: 2}, &point{X: 1, y: 3}))
}

func TestDeepEqual_FunctionsCompareByIdentity(t *testing.T) {
	mk := func(n int) func() int { return func() int { return n } }
	a, b := mk(1), mk(1)
	assert.True(t, DeepEqual(a, a))
	assert.False(t, DeepEqual(a, b))

	type holder struct{ F func() int }
	assert.True(t, DeepEqual(holder{F: a}, holder{F: a}))
	assert.False(t, DeepEqual(holder{F: a}, holder{F: b}))
}

func TestDeepEqual_RegexpComparesByIdentity(t *testing.T) {
	re := regexp.MustCompile("a+")
	assert.True(t, DeepEqual(re, re))
	assert.False(t, DeepEqual(re, regexp.MustCompile("a+")))
}

func TestDeepEqual_TimeIsNeverEqual(t *testing.T) {
	now := time.Now()
	assert.False(t, DeepEqual(now, now))
	assert.False(t, DeepEqual(struct{ At time.Time }{now}, struct{ At time.Time }{now}))
}

func TestDeepEqual_Cycles(t *testing.T) {
	a := &node{V: 1}
	a.Next = a
	b := &node{V: 1}
	b.Next = b
	assert.True(t, DeepEqual(a, b))

	c := &node{V: 2}
	c.Next = c
	assert.False(t, DeepEqual(a, c))
}

func TestDeepEqual_Reflexive(t *testing.T) {
	values := []any{
		0, "", "text", true, 3.5,
		[]int{1, 2, 3},
		map[string]any{"a": []any{1, "b", nil}},
		&point{X: 4},
		struct{ A []string }{A: []string{"x"}},
		[]any{},
	}
	for _, v := range values {
		assert.True(t, DeepEqual(v, v), "DeepEqual(%#v, itself)", v)
	}
}

func TestWasObserved(t *testing.T) {
	obs := &fakeObservation{}
	ok, err := WasObserved(obs)
	require.NoError(t, err)
	assert.False(t, ok)

	obs.calls = append(obs.calls, []any{1})
	ok, err = WasObserved(obs)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWasObserved_NotObserved(t *testing.T) {
	_, err := WasObserved(func() {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotObserved))

	var nilObs *fakeObservation
	_, err = WasObserved(nilObs)
	var notObserved *NotObservedError
	require.ErrorAs(t, err, &notObserved)
	assert.Equal(t, "null", notObserved.Value)

	_, err = WasObserved(42)
	require.ErrorAs(t, err, &notObserved)
	assert.Equal(t, "42", notObserved.Value)
	assert.Equal(t, "function was not observed: 42", err.Error())
}

func TestObservedCallCount(t *testing.T) {
	obs := &fakeObservation{calls: [][]any{{}, {}}}
	ok, err := ObservedCallCount(obs, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ObservedCallCount(obs, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ObservedCallCount("nope", 0)
	assert.ErrorIs(t, err, ErrNotObserved)
}

func TestObservedLastCallArgs(t *testing.T) {
	obs := &fakeObservation{}
	ok, err := ObservedLastCallArgs(obs, []any{})
	require.NoError(t, err)
	assert.False(t, ok, "no calls never matches")

	obs.calls = [][]any{{"first"}, {1, 2}}
	ok, err = ObservedLastCallArgs(obs, []any{1, 2})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ObservedLastCallArgs(obs, []any{"first"})
	require.NoError(t, err)
	assert.False(t, ok)

	obs.calls = append(obs.calls, []any{})
	ok, err = ObservedLastCallArgs(obs, nil)
	require.NoError(t, err)
	assert.True(t, ok, "zero-argument call matches an empty expectation")
}

func TestObservedValidators_AcceptTheWrapper(t *testing.T) {
	m := observe.NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	obj := &struct{ F func(a, b int) }{F: func(a, b int) {}}

	_, err := WasObserved(obj.F)
	require.ErrorIs(t, err, ErrNotObserved, "plain funcs are not observed")

	_, err = m.Observe(obj, "F", true)
	require.NoError(t, err)

	ok, err := WasObserved(obj.F)
	require.NoError(t, err)
	assert.False(t, ok)

	obj.F(1, 2)

	ok, err = WasObserved(obj.F)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ObservedCallCount(obj.F, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ObservedLastCallArgs(obj.F, []any{1, 2})
	require.NoError(t, err)
	assert.True(t, ok)

	m.RestoreAll()
	_, err = WasObserved(obj.F)
	assert.ErrorIs(t, err, ErrNotObserved)
}
