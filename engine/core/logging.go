package core

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the diagnostics sink handed to every system at construction.
// Systems never reach for a process-wide logger; whoever wires the engine
// together decides where diagnostics go.
type Logger interface {
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
}

type charmLogger struct {
	*log.Logger
}

// NewLogger returns the default Logger implementation, writing to stderr.
// Level accepts "debug", "info", "warn" or "error"; anything else falls
// back to "info".
func NewLogger(prefix, level string) Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	switch strings.ToLower(level) {
	case "debug":
		l.SetLevel(log.DebugLevel)
	case "warn":
		l.SetLevel(log.WarnLevel)
	case "error":
		l.SetLevel(log.ErrorLevel)
	default:
		l.SetLevel(log.InfoLevel)
	}
	return &charmLogger{l}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NewNopLogger returns a Logger that discards everything. Useful in tests.
func NewNopLogger() Logger {
	return nopLogger{}
}
