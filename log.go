package janus

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger handed to runners that were not given
// one with WithLogger. A nil value means the default derived from
// slog.Default().
var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the package-level logger used by Run and RunT. The
// provided logger should already carry any desired attributes.
//
// If l is nil, the logger resets to slog.Default() with a "component"
// attribute, re-derived on every Run.
//
// SetLogger is safe to call concurrently, but runs already in progress keep
// the logger they started with. Call it before Run, e.g. in TestMain.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// Logger returns the current package-level logger.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default().With("component", "janus")
}
