package calculation

import (
	"fmt"
	"log/slog"
)

// Logger is a minimal logging interface for the calculation engine.
// Implementations should be fast; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger wraps l, falling back to slog.Default when l is nil.
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Debugf(format string, args ...any) { s.L.Debug(fmt.Sprintf(format, args...)) }
func (s SlogLogger) Infof(format string, args ...any)  { s.L.Info(fmt.Sprintf(format, args...)) }
func (s SlogLogger) Warnf(format string, args ...any)  { s.L.Warn(fmt.Sprintf(format, args...)) }
func (s SlogLogger) Errorf(format string, args ...any) { s.L.Error(fmt.Sprintf(format, args...)) }
