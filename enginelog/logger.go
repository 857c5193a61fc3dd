// Package enginelog wraps zap behind the small logging interface the rest
// of the engine depends on, so core packages never import zap directly.
package enginelog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Logger is the logging surface every package in this module takes a
// dependency on instead of a concrete backend.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// zapLogger backs Logger with a zap.SugaredLogger. debug is tracked
// separately from zap's own level because DebugEnabled is polled from the
// renderer's hot path and a bare atomic load is cheaper than asking zap.
type zapLogger struct {
	debug atomic.Bool
	sugar *zap.SugaredLogger
}

// New builds a production zap logger, named for the subsystem that owns it.
func New(name string) (Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return wrap(base.Named(name)), nil
}

// NewDevelopment builds a human-readable console logger suited to local
// runs of cmd/enginedemo.
func NewDevelopment(name string) (Logger, error) {
	base, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return wrap(base.Named(name)), nil
}

func wrap(z *zap.Logger) Logger {
	l := &zapLogger{sugar: z.Sugar()}
	return l
}

func (l *zapLogger) DebugEnabled() bool { return l.debug.Load() }

func (l *zapLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *zapLogger) Debugf(format string, args ...any) {
	if !l.debug.Load() {
		return
	}
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) { l.sugar.Infof(format, args...) }

func (l *zapLogger) Warnf(format string, args ...any) { l.sugar.Warnf(format, args...) }

func (l *zapLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }

type nopLogger struct{}

// NewNop returns a Logger that discards everything, for tests and for
// callers that have not configured logging.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(enabled bool)             {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}

var _ Logger = (*zapLogger)(nil)
