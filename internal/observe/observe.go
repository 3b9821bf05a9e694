// Package observe intercepts calls to func-typed fields and func variables.
//
// Go has no monkey patching, so the interception points are values the test
// can reach through a pointer:
//
//	type Store struct {
//	    Save func(key string, v int) error
//	}
//
//	obs, err := m.Observe(&store, "Save", true)
//
// or a package-level func variable, observed with an empty method name:
//
//	var now = time.Now
//	obs, err := m.Observe(&now, "", false)
//
// The wrapper installed in place of the original counts calls, records the
// argument lists, and forwards to the original only when pass-through is on.
// Restore puts the captured original back; every Manager restores all of
// its observations with RestoreAll.
package observe

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"unsafe"
)

var (
	// ErrInvalidTarget is returned when the observation target is not a
	// non-nil pointer.
	ErrInvalidTarget = errors.New("observe target must be a non-nil pointer")

	// ErrMethodNotFound is returned when the target has no settable field
	// with the requested name.
	ErrMethodNotFound = errors.New("method not found on target")

	// ErrNotCallable is returned when the named field is not a non-nil func.
	ErrNotCallable = errors.New("method is not callable")
)

// key identifies an interception point in the side table.
type key struct {
	ptr    uintptr
	typ    reflect.Type
	method string
}

// installed tracks the live observation for every interception point across
// all managers, so a new observation always captures the true original and
// never a wrapper left by someone else. byWrapper maps each installed
// wrapper's closure back to its observation, so the wrapper itself (obj.F)
// can be handed to the matchers.
var installed = struct {
	sync.Mutex
	byKey     map[key]*Observation
	byWrapper map[unsafe.Pointer]*Observation
}{
	byKey:     make(map[key]*Observation),
	byWrapper: make(map[unsafe.Pointer]*Observation),
}

// Observation is the handle for one intercepted func.
// It is safe for concurrent use; the observed func may be called from
// goroutines started by the spec.
type Observation struct {
	mu          sync.Mutex
	key         key
	field       reflect.Value
	original    reflect.Value
	calls       [][]any
	passThrough bool
	active      bool

	// wrapper is the closure identity of the installed wrapper; guarded by
	// installed's mutex.
	wrapper unsafe.Pointer
}

// Method returns the observed field name ("" for a func variable).
func (o *Observation) Method() string {
	return o.key.method
}

// CallCount returns the number of calls recorded while the observation was
// active.
func (o *Observation) CallCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// Calls returns a copy of every recorded argument list, oldest first.
func (o *Observation) Calls() [][]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([][]any, len(o.calls))
	for i, args := range o.calls {
		out[i] = append([]any(nil), args...)
	}
	return out
}

// LastArgs returns the arguments of the most recent call.
func (o *Observation) LastArgs() ([]any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.calls) == 0 {
		return nil, false
	}
	return append([]any{}, o.calls[len(o.calls)-1]...), true
}

// PassThrough reports whether calls reach the original implementation.
func (o *Observation) PassThrough() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.passThrough
}

// Active reports whether the wrapper is still installed.
func (o *Observation) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Restore puts the original implementation back on the target. It returns
// false if the observation was already restored.
func (o *Observation) Restore() bool {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return false
	}
	o.active = false
	o.field.Set(o.original)
	o.mu.Unlock()

	installed.Lock()
	if installed.byKey[o.key] == o {
		delete(installed.byKey, o.key)
	}
	delete(installed.byWrapper, o.wrapper)
	o.wrapper = nil
	installed.Unlock()
	return true
}

// install sets a fresh wrapper on the field, replacing whatever the field
// holds, and registers the wrapper's identity.
func (o *Observation) install() {
	w := reflect.MakeFunc(o.field.Type(), o.intercept)

	installed.Lock()
	if o.wrapper != nil {
		delete(installed.byWrapper, o.wrapper)
	}
	o.wrapper = funcIdentity(w.Interface())
	installed.byWrapper[o.wrapper] = o
	installed.Unlock()

	o.field.Set(w)
}

// Of returns the active observation whose wrapper is fn, or nil when fn is
// not an observed function. Passing obj.F after Observe(obj, "F", ...)
// returns the observation.
func Of(fn any) *Observation {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return nil
	}
	id := funcIdentity(fn)
	if id == nil {
		return nil
	}
	installed.Lock()
	obs := installed.byWrapper[id]
	installed.Unlock()
	if obs == nil || !obs.Active() {
		return nil
	}
	return obs
}

// funcIdentity returns the closure pointer stored in a func value. Every
// reflect.MakeFunc result has its own.
func funcIdentity(fn any) unsafe.Pointer {
	type eface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}
	return (*eface)(unsafe.Pointer(&fn)).data
}

// intercept is the body of the installed wrapper.
func (o *Observation) intercept(in []reflect.Value) []reflect.Value {
	o.mu.Lock()
	orig := o.original
	if !o.active {
		o.mu.Unlock()
		return forward(orig, in)
	}
	o.calls = append(o.calls, argsOf(orig.Type(), in))
	pass := o.passThrough
	o.mu.Unlock()

	if !pass {
		return zeroResults(orig.Type())
	}
	return forward(orig, in)
}

func forward(fn reflect.Value, in []reflect.Value) []reflect.Value {
	if fn.Type().IsVariadic() {
		return fn.CallSlice(in)
	}
	return fn.Call(in)
}

// argsOf flattens a call's arguments, expanding the variadic tail so that
// f(1, 2) records [1 2] whether f takes (int, int) or (...int).
func argsOf(ft reflect.Type, in []reflect.Value) []any {
	args := make([]any, 0, len(in))
	for i, v := range in {
		if ft.IsVariadic() && i == len(in)-1 {
			for j := 0; j < v.Len(); j++ {
				args = append(args, v.Index(j).Interface())
			}
			continue
		}
		args = append(args, v.Interface())
	}
	return args
}

func zeroResults(ft reflect.Type) []reflect.Value {
	out := make([]reflect.Value, ft.NumOut())
	for i := range out {
		out[i] = reflect.Zero(ft.Out(i))
	}
	return out
}

// Manager owns the observations made during one spec.
type Manager struct {
	mu      sync.Mutex
	handles map[key]*Observation
	order   []*Observation
	logger  *slog.Logger
}

// NewManager creates an empty manager. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		handles: make(map[key]*Observation),
		logger:  logger,
	}
}

// Observe wraps target's func-typed field named method (or the func variable
// target points to, when method is empty).
//
// Observing the same point twice through one manager returns the existing
// handle with its history cleared and pass-through updated, and installs a
// new wrapper over whatever the field holds now. The captured original is
// unchanged.
func (m *Manager) Observe(target any, method string, passThrough bool) (*Observation, error) {
	field, k, err := resolve(target, method)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if obs, ok := m.handles[k]; ok && obs.Active() {
		obs.mu.Lock()
		obs.calls = nil
		obs.passThrough = passThrough
		obs.mu.Unlock()
		obs.install()
		m.logger.Debug("observation reset", "method", method, "pass_through", passThrough)
		return obs, nil
	}

	if field.IsNil() {
		return nil, fmt.Errorf("%w: %q is nil", ErrNotCallable, method)
	}

	obs := &Observation{
		key:         k,
		field:       field,
		passThrough: passThrough,
		active:      true,
	}

	installed.Lock()
	if prev, ok := installed.byKey[k]; ok && prev.Active() {
		obs.original = prev.original
	} else {
		obs.original = reflect.ValueOf(field.Interface())
	}
	installed.byKey[k] = obs
	installed.Unlock()

	obs.install()

	m.handles[k] = obs
	m.order = append(m.order, obs)
	m.logger.Debug("observation installed", "method", method, "pass_through", passThrough)
	return obs, nil
}

// Lookup returns the active observation for target/method, or nil.
func (m *Manager) Lookup(target any, method string) *Observation {
	_, k, err := resolve(target, method)
	if err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obs, ok := m.handles[k]
	if !ok || !obs.Active() {
		return nil
	}
	return obs
}

// RestoreAll restores every observation in reverse creation order and
// returns how many were restored by this call.
func (m *Manager) RestoreAll() int {
	m.mu.Lock()
	order := m.order
	m.order = nil
	m.handles = make(map[key]*Observation)
	m.mu.Unlock()

	restored := 0
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Restore() {
			restored++
		}
	}
	if restored > 0 {
		m.logger.Debug("observations restored", "count", restored)
	}
	return restored
}

// Len returns the number of observations the manager still owns.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// resolve finds the settable func value named by target/method.
func resolve(target any, method string) (reflect.Value, key, error) {
	tv := reflect.ValueOf(target)
	if !tv.IsValid() || tv.Kind() != reflect.Pointer || tv.IsNil() {
		return reflect.Value{}, key{}, fmt.Errorf("%w: got %T", ErrInvalidTarget, target)
	}
	elem := tv.Elem()

	var field reflect.Value
	if method == "" {
		field = elem
	} else {
		if elem.Kind() != reflect.Struct {
			return reflect.Value{}, key{}, fmt.Errorf("%w: %q on %T", ErrMethodNotFound, method, target)
		}
		field = elem.FieldByName(method)
		if !field.IsValid() || !field.CanSet() {
			return reflect.Value{}, key{}, fmt.Errorf("%w: %q on %T", ErrMethodNotFound, method, target)
		}
	}
	if field.Kind() != reflect.Func {
		return reflect.Value{}, key{}, fmt.Errorf("%w: %q has kind %s", ErrNotCallable, method, field.Kind())
	}

	return field, key{ptr: tv.Pointer(), typ: tv.Type(), method: method}, nil
}
