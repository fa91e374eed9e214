package psf

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false, so slog
// never formats a message when logging is off.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the active logger behind an atomic pointer so
// SetLogger may race freely with log calls on other goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger installs l as the logger for psf and any registered
// backend. The package is silent until a logger is set; passing nil
// returns it to silence. Safe for concurrent use.
//
// What gets logged where: Debug carries kernel and device-pipeline
// diagnostics, Info marks backend lifecycle (adapter chosen, tensors
// uploaded), and Warn flags recoverable conditions such as a GPU
// fallback or dropped emitters. Handler choice, level filtering, and
// output destination are entirely the caller's:
//
//	psf.SetLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to the accelerated backend if it accepts a logger.
	backendMu.RLock()
	b := acceleratedFactory
	backendMu.RUnlock()
	if b != nil {
		propagateLogger(b, l)
	}
}

// Logger returns the active logger. Backend packages log through it
// rather than holding their own configuration, which also avoids an
// import cycle with the registry. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backend factories that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands the logger to a factory implementing
// loggerSetter. Invoked on SetLogger and again on registration, so a
// factory registered late still sees the current logger.
func propagateLogger(v any, l *slog.Logger) {
	if ls, ok := v.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
