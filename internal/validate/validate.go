// Package validate holds the pure comparison functions behind every matcher.
//
// Validators never mutate their inputs and keep no state; they are shared by
// all specs of a run.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"
	"unsafe"

	"github.com/roach88/janus/internal/observe"
	"github.com/roach88/janus/internal/render"
)

// Validator compares an actual value with an expected one.
// A non-nil error means the comparison could not be made at all.
type Validator func(actual, expected any) (bool, error)

// ErrNotObserved is returned by observation validators when the value under
// test was never wrapped by an observation.
var ErrNotObserved = errors.New("function was not observed")

// NotObservedError carries the rendered value that was expected to be an
// observation.
type NotObservedError struct {
	Value string
}

// Error implements the error interface.
func (e *NotObservedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotObserved, e.Value)
}

// Unwrap returns ErrNotObserved.
func (e *NotObservedError) Unwrap() error {
	return ErrNotObserved
}

// Observed is implemented by observation handles.
type Observed interface {
	CallCount() int
	LastArgs() ([]any, bool)
}

var (
	timeType   = reflect.TypeFor[time.Time]()
	regexpType = reflect.TypeFor[*regexp.Regexp]()
)

// Exact reports whether actual and expected are the same value: identity for
// pointers, maps, slices, chans and funcs; == for everything else. No type
// coercion is applied, so int(1) and int64(1) are never exact.
func Exact(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	av, ev := reflect.ValueOf(actual), reflect.ValueOf(expected)
	if av.Type() != ev.Type() {
		return false
	}
	if av.Kind() == reflect.Func {
		return funcIdentity(actual) == funcIdentity(expected)
	}
	return exactValue(av, ev)
}

func exactValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer, reflect.Func:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len() && a.IsNil() == b.IsNil()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.Elem().Type() != b.Elem().Type() {
			return false
		}
		return exactValue(a.Elem(), b.Elem())
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !exactValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !exactValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(a, b)
	}
}

// DeepEqual reports whether actual and expected are structurally equal.
//
// Rules: nil equals only nil; differing concrete types are never equal;
// funcs and *regexp.Regexp compare by identity; time.Time values are never
// equal (a known limitation, compare Unix() values instead); slices and
// arrays need the same length and equal elements; maps need the same key
// set and equal values; structs compare every field. A nil slice or map is
// not equal to an empty one.
func DeepEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	av, ev := reflect.ValueOf(actual), reflect.ValueOf(expected)
	if av.Type() != ev.Type() {
		return false
	}
	if av.Kind() == reflect.Func {
		return funcIdentity(actual) == funcIdentity(expected)
	}
	return deepValueEqual(av, ev, make(map[visit]bool))
}

type visit struct {
	a, b uintptr
	typ  reflect.Type
}

func deepValueEqual(a, b reflect.Value, visited map[visit]bool) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Type() {
	case timeType:
		return false
	case regexpType:
		return a.Pointer() == b.Pointer()
	}

	switch a.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.Pointer() == b.Pointer() && (a.Kind() != reflect.Slice || a.Len() == b.Len()) {
			return true
		}
		key := visit{a: a.Pointer(), b: b.Pointer(), typ: a.Type()}
		if visited[key] {
			return true
		}
		visited[key] = true
	}

	switch a.Kind() {
	case reflect.Pointer:
		return deepValueEqual(a.Elem(), b.Elem(), visited)
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return deepValueEqual(a.Elem(), b.Elem(), visited)
	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !deepValueEqual(a.Index(i), b.Index(i), visited) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !deepValueEqual(iter.Value(), bv, visited) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !deepValueEqual(a.Field(i), b.Field(i), visited) {
				return false
			}
		}
		return true
	case reflect.Func:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.CanInterface() && b.CanInterface() {
			return funcIdentity(a.Interface()) == funcIdentity(b.Interface())
		}
		return a.Pointer() == b.Pointer()
	case reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	default:
		return scalarEqual(a, b)
	}
}

func scalarEqual(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	default:
		return false
	}
}

// funcIdentity returns the closure pointer stored in a func value. Two func
// values share it only when they are the same function or the same closure
// instance; reflect's code pointer would conflate distinct closures.
func funcIdentity(fn any) unsafe.Pointer {
	type eface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}
	return (*eface)(unsafe.Pointer(&fn)).data
}

// WasObserved reports whether the observation recorded at least one call.
func WasObserved(actual any) (bool, error) {
	obs, err := AsObserved(actual)
	if err != nil {
		return false, err
	}
	return obs.CallCount() > 0, nil
}

// ObservedCallCount reports whether the observation recorded exactly n calls.
func ObservedCallCount(actual any, n int) (bool, error) {
	obs, err := AsObserved(actual)
	if err != nil {
		return false, err
	}
	return obs.CallCount() == n, nil
}

// ObservedLastCallArgs reports whether the most recent call's arguments are
// deeply equal to args. An observation with no calls never matches.
func ObservedLastCallArgs(actual any, args []any) (bool, error) {
	obs, err := AsObserved(actual)
	if err != nil {
		return false, err
	}
	last, ok := obs.LastArgs()
	if !ok || len(last) != len(args) {
		return false, nil
	}
	for i := range args {
		if !DeepEqual(last[i], args[i]) {
			return false, nil
		}
	}
	return true, nil
}

// AsObserved returns the observation behind actual, which may be an
// observation handle or the installed wrapper itself. Anything else fails
// with a *NotObservedError.
func AsObserved(actual any) (Observed, error) {
	if o := observe.Of(actual); o != nil {
		return o, nil
	}
	obs, ok := actual.(Observed)
	if !ok || obs == nil {
		return nil, &NotObservedError{Value: render.Render(actual)}
	}
	if v := reflect.ValueOf(obs); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, &NotObservedError{Value: "null"}
	}
	return obs, nil
}
