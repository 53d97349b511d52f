// Package logger builds the zap logger shared by the service.
package logger

import (
	"go.uber.org/zap"
)

// Logger holds the process wide zap logger.
type Logger struct {
	Log *zap.Logger
}

// New returns a Logger that discards everything until Init is called.
func New() *Logger {
	return &Logger{
		Log: zap.NewNop(),
	}
}

// Init replaces the no-op logger with a JSON production logger at level.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return err
	}

	l.Log = zl
	return nil
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(component string) *zap.Logger {
	return l.Log.Named(component)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.Log.Sync()
}
