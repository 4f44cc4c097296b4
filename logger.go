package simdjson

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger replaces the package logger. A nil logger restores the default,
// which derives from slog.Default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default().With("component", "simdjson")
	}
	logger.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger.Load()
}
