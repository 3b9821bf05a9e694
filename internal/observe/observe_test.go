package observe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(a, b int) int { return a + b }

type calculator struct {
	Add   func(a, b int) int
	Log   func(format string, args ...any) string
	Save  func() (int, error)
	Reset func()
	Name  string
	hook  func()
}

func newCalculator() *calculator {
	return &calculator{
		Add:   add,
		Log:   fmt.Sprintf,
		Save:  func() (int, error) { return 7, errors.New("disk full") },
		Reset: func() {},
		hook:  func() {},
	}
}

func testManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func funcPtr(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func TestObserve_RoundTrip(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)
	assert.NotEqual(t, funcPtr(add), funcPtr(calc.Add), "wrapper should be installed")

	assert.Equal(t, 3, calc.Add(1, 2))
	assert.Equal(t, 1, obs.CallCount())
	last, ok := obs.LastArgs()
	require.True(t, ok)
	assert.Equal(t, []any{1, 2}, last)

	assert.Equal(t, 1, m.RestoreAll())
	assert.Equal(t, funcPtr(add), funcPtr(calc.Add), "original should be restored")
	assert.False(t, obs.Active())
}

func TestObserve_WithoutPassThroughNeverRunsOriginal(t *testing.T) {
	m := testManager()
	value := 100
	obj := &struct{ ChangeValue func(int) }{
		ChangeValue: func(v int) { value = v },
	}

	obs, err := m.Observe(obj, "ChangeValue", false)
	require.NoError(t, err)

	obj.ChangeValue(200)
	assert.Equal(t, 100, value)
	assert.Equal(t, 1, obs.CallCount())

	m.RestoreAll()
	obj.ChangeValue(300)
	assert.Equal(t, 300, value)
}

func TestObserve_StubReturnsZeroValues(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	_, err := m.Observe(calc, "Save", false)
	require.NoError(t, err)

	n, err := calc.Save()
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
}

func TestObserve_PassThroughPropagatesResultsAndPanics(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	_, err := m.Observe(calc, "Save", true)
	require.NoError(t, err)
	n, saveErr := calc.Save()
	assert.Equal(t, 7, n)
	assert.EqualError(t, saveErr, "disk full")

	calc.Reset = func() { panic("boom") }
	_, err = m.Observe(calc, "Reset", true)
	require.NoError(t, err)
	assert.PanicsWithValue(t, "boom", func() { calc.Reset() })
}

func TestObserve_VariadicArgsAreFlattened(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Log", true)
	require.NoError(t, err)

	assert.Equal(t, "x=1 y=2", calc.Log("x=%d y=%d", 1, 2))
	last, ok := obs.LastArgs()
	require.True(t, ok)
	assert.Equal(t, []any{"x=%d y=%d", 1, 2}, last)
}

func TestObserve_FuncVariable(t *testing.T) {
	m := testManager()
	greet := func(name string) string { return "hello " + name }
	original := funcPtr(greet)

	obs, err := m.Observe(&greet, "", true)
	require.NoError(t, err)
	assert.Equal(t, "hello bob", greet("bob"))
	assert.Equal(t, 1, obs.CallCount())
	assert.Equal(t, "", obs.Method())

	m.RestoreAll()
	assert.Equal(t, original, funcPtr(greet))
}

func TestObserve_InvalidTargets(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	_, err := m.Observe(nil, "Add", true)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = m.Observe(*calc, "Add", true)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	var nilCalc *calculator
	_, err = m.Observe(nilCalc, "Add", true)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = m.Observe(calc, "Missing", true)
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = m.Observe(calc, "hook", true)
	assert.ErrorIs(t, err, ErrMethodNotFound, "unexported fields cannot be replaced")

	_, err = m.Observe(calc, "Name", true)
	assert.ErrorIs(t, err, ErrNotCallable)

	calc.Reset = nil
	_, err = m.Observe(calc, "Reset", true)
	assert.ErrorIs(t, err, ErrNotCallable)

	n := 3
	_, err = m.Observe(&n, "", true)
	assert.ErrorIs(t, err, ErrNotCallable)

	assert.Equal(t, 0, m.Len())
}

func TestObserve_ReobserveReusesHandle(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	first, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)
	calc.Add(1, 1)

	second, err := m.Observe(calc, "Add", false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 0, second.CallCount(), "history is cleared")
	assert.False(t, second.PassThrough())
	assert.Equal(t, 0, calc.Add(1, 1))

	assert.Equal(t, 1, m.RestoreAll())
	assert.Equal(t, funcPtr(add), funcPtr(calc.Add))
}

func TestObserve_ReobserveReinstallsWrapper(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)

	calc.Add = func(a, b int) int { return a * b }
	calc.Add(2, 3)
	assert.Equal(t, 0, obs.CallCount(), "replaced field bypasses the wrapper")

	again, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)
	assert.Same(t, obs, again)
	assert.Equal(t, 5, calc.Add(2, 3), "forwards to the captured original")
	assert.Equal(t, 1, again.CallCount())
	assert.Same(t, again, Of(calc.Add))

	m.RestoreAll()
	assert.Equal(t, funcPtr(add), funcPtr(calc.Add))
}

func TestOf(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	assert.Nil(t, Of(calc.Add), "not observed yet")
	assert.Nil(t, Of(nil))
	assert.Nil(t, Of(42))
	assert.Nil(t, Of((func())(nil)))

	obs, err := m.Observe(calc, "Add", false)
	require.NoError(t, err)
	wrapper := calc.Add
	assert.Same(t, obs, Of(wrapper))
	assert.Nil(t, Of(calc.Save), "other fields stay unobserved")

	other := newCalculator()
	otherObs, err := m.Observe(other, "Add", false)
	require.NoError(t, err)
	assert.Same(t, otherObs, Of(other.Add))
	assert.Same(t, obs, Of(calc.Add))

	m.RestoreAll()
	assert.Nil(t, Of(wrapper), "restored wrappers are no longer observed")
	assert.Nil(t, Of(calc.Add))
}

func TestObserve_NestedManagersRestoreTrueOriginal(t *testing.T) {
	outer := testManager()
	inner := testManager()
	calc := newCalculator()

	_, err := outer.Observe(calc, "Add", true)
	require.NoError(t, err)
	_, err = inner.Observe(calc, "Add", true)
	require.NoError(t, err)

	inner.RestoreAll()
	assert.Equal(t, funcPtr(add), funcPtr(calc.Add))

	outer.RestoreAll()
	assert.Equal(t, funcPtr(add), funcPtr(calc.Add))
}

func TestObserve_CallsAfterRestoreAreNotRecorded(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Add", false)
	require.NoError(t, err)
	wrapper := calc.Add
	wrapper(1, 2)

	m.RestoreAll()
	assert.Equal(t, 5, wrapper(2, 3), "stale wrapper forwards to the original")
	assert.Equal(t, 1, obs.CallCount())
}

func TestObservation_RestoreIsIdempotent(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)

	assert.True(t, obs.Restore())
	assert.False(t, obs.Restore())
	assert.Equal(t, 0, m.RestoreAll())
	assert.Equal(t, funcPtr(add), funcPtr(calc.Add))
}

func TestManager_Lookup(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	assert.Nil(t, m.Lookup(calc, "Add"))
	obs, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)
	assert.Same(t, obs, m.Lookup(calc, "Add"))
	assert.Nil(t, m.Lookup(calc, "Log"))
	assert.Nil(t, m.Lookup(42, "Add"))

	m.RestoreAll()
	assert.Nil(t, m.Lookup(calc, "Add"))
}

func TestObservation_CallsReturnsCopies(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)
	calc.Add(1, 2)
	calc.Add(3, 4)

	calls := obs.Calls()
	assert.Equal(t, [][]any{{1, 2}, {3, 4}}, calls)
	calls[0][0] = 99
	assert.Equal(t, [][]any{{1, 2}, {3, 4}}, obs.Calls())
}

func TestObservation_ConcurrentCalls(t *testing.T) {
	m := testManager()
	calc := newCalculator()

	obs, err := m.Observe(calc, "Add", true)
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(n int) {
			defer wg.Done()
			calc.Add(n, n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, goroutines, obs.CallCount())
}
