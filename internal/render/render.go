package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/janus/internal/observe"
)

// Recorder is implemented by values that remember the arguments of their
// most recent call. Observations implement it.
type Recorder interface {
	LastArgs() ([]any, bool)
}

var (
	errorType    = reflect.TypeFor[error]()
	timeType     = reflect.TypeFor[time.Time]()
	regexpType   = reflect.TypeFor[regexp.Regexp]()
	recorderType = reflect.TypeFor[Recorder]()
)

// Render returns the diagnostic text for v.
func Render(v any) string {
	if v == nil {
		return "null"
	}
	var buf strings.Builder
	r := &renderer{buf: &buf, path: make(map[visit]bool)}
	r.value(reflect.ValueOf(v))
	return buf.String()
}

// Args renders an argument list as comma separated values.
func Args(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = Render(arg)
	}
	return strings.Join(parts, ", ")
}

// String quotes s the way Render quotes string values.
func String(s string) string {
	return quote(s)
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

type renderer struct {
	buf  *strings.Builder
	path map[visit]bool
}

func (r *renderer) value(v reflect.Value) {
	if !v.IsValid() {
		r.buf.WriteString("null")
		return
	}

	if v.CanInterface() && v.Type().Implements(recorderType) && !isNilRef(v) {
		r.recorder(v.Interface().(Recorder))
		return
	}

	switch v.Type() {
	case timeType:
		if v.CanInterface() {
			r.buf.WriteString(quote(v.Interface().(time.Time).Format(time.RFC3339Nano)))
			return
		}
	case reflect.PointerTo(regexpType):
		if !v.IsNil() && v.CanInterface() {
			r.buf.WriteString("/" + v.Interface().(*regexp.Regexp).String() + "/")
			return
		}
	}

	if v.Kind() != reflect.Interface && v.Type().Implements(errorType) && v.CanInterface() && !isNilRef(v) {
		r.buf.WriteString("error(" + quote(v.Interface().(error).Error()) + ")")
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		r.buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		r.buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		r.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32:
		r.buf.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 32))
	case reflect.Float64:
		r.buf.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		r.buf.WriteString(strconv.FormatComplex(v.Complex(), 'g', -1, 128))
	case reflect.String:
		r.buf.WriteString(quote(v.String()))
	case reflect.Interface:
		if v.IsNil() {
			r.buf.WriteString("null")
			return
		}
		r.value(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			r.buf.WriteString("null")
			return
		}
		r.enter(v, func() { r.value(v.Elem()) })
	case reflect.Slice:
		if v.IsNil() {
			r.buf.WriteString("null")
			return
		}
		r.enter(v, func() { r.list(v) })
	case reflect.Array:
		r.list(v)
	case reflect.Map:
		if v.IsNil() {
			r.buf.WriteString("null")
			return
		}
		r.enter(v, func() { r.mapping(v) })
	case reflect.Struct:
		r.structure(v)
	case reflect.Func:
		if v.IsNil() {
			r.buf.WriteString("null")
			return
		}
		if v.CanInterface() {
			if obs := observe.Of(v.Interface()); obs != nil {
				r.recorder(obs)
				return
			}
		}
		r.buf.WriteString(funcLabel(v))
	case reflect.Chan:
		if v.IsNil() {
			r.buf.WriteString("null")
			return
		}
		fmt.Fprintf(r.buf, "[Chan %s]", v.Type())
	default:
		fmt.Fprintf(r.buf, "[%s]", v.Type())
	}
}

// recorder renders an observed function as its last call's arguments.
func (r *renderer) recorder(rec Recorder) {
	if args, ok := rec.LastArgs(); ok {
		r.buf.WriteString(Args(args))
		return
	}
	r.buf.WriteString("[Observed function]")
}

// enter guards reference kinds against cycles on the current path.
func (r *renderer) enter(v reflect.Value, fn func()) {
	key := visit{ptr: v.Pointer(), typ: v.Type()}
	if r.path[key] {
		r.buf.WriteString("[Circular]")
		return
	}
	r.path[key] = true
	fn()
	delete(r.path, key)
}

func (r *renderer) list(v reflect.Value) {
	r.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			r.buf.WriteByte(',')
		}
		r.value(v.Index(i))
	}
	r.buf.WriteByte(']')
}

func (r *renderer) mapping(v reflect.Value) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k := iter.Key()
		var key string
		if k.Kind() == reflect.String {
			key = k.String()
		} else {
			key = Render(valueOf(k))
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int { return compareUTF16(a.key, b.key) })

	r.buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			r.buf.WriteByte(',')
		}
		r.buf.WriteString(quote(e.key))
		r.buf.WriteByte(':')
		r.value(e.val)
	}
	r.buf.WriteByte('}')
}

func (r *renderer) structure(v reflect.Value) {
	t := v.Type()
	r.buf.WriteByte('{')
	for i := 0; i < t.NumField(); i++ {
		if i > 0 {
			r.buf.WriteByte(',')
		}
		r.buf.WriteString(quote(t.Field(i).Name))
		r.buf.WriteByte(':')
		r.value(v.Field(i))
	}
	r.buf.WriteByte('}')
}

// valueOf returns the interface form of v when allowed, else a best-effort
// textual fallback for unexported map keys.
func valueOf(v reflect.Value) any {
	if v.CanInterface() {
		return v.Interface()
	}
	return fmt.Sprintf("%v", v)
}

func isNilRef(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func funcLabel(v reflect.Value) string {
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return "[Function]"
	}
	return "[Function " + fn.Name() + "]"
}

// quote produces a JSON string literal with NFC normalization and without
// HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// compareUTF16 orders strings by UTF-16 code units.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
