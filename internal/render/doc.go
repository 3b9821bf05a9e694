// Package render turns arbitrary Go values into the short, deterministic
// text used in failing diagnostics ("Expected 1 to be 2").
//
// The output is JSON-like but is NOT a serialization format and is never
// parsed back. The rules are explicit rather than inherited from
// encoding/json:
//
//   - nil (and nil pointers, maps, slices, funcs) render as null
//   - strings are quoted, NFC normalized, and never HTML-escaped
//   - map keys are sorted by UTF-16 code units so output is stable
//   - structs render every field (exported or not) in declaration order
//   - funcs render as [Function name] using the runtime symbol name
//   - values that record calls (observations) render their last call's
//     arguments, comma separated ([Observed function] before any call)
//   - *regexp.Regexp renders as /pattern/, time.Time as a quoted RFC 3339
//     timestamp, errors as error("message")
//   - a pointer, map, or slice already being rendered on the current path
//     renders as [Circular] instead of recursing forever
package render
