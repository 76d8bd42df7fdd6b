// Package logging provides structured logging for the sync core.
//
// All failure handling inside the sync subsystem degrades to a log entry;
// nothing here ever reaches the user as an error, so the log is the only
// place transient sync failures are visible.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, logrus.InfoLevel)
)

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

// Init reconfigures the global logger output and minimum level.
// Unknown level strings fall back to info.
func Init(out io.Writer, level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(out, parsed)
}

func entry(context map[string]any) *logrus.Entry {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if len(context) == 0 {
		return logrus.NewEntry(l)
	}
	return l.WithFields(logrus.Fields(context))
}

// Debug logs a debug message with optional context fields.
func Debug(message string, context map[string]any) {
	entry(context).Debug(message)
}

// Info logs an info message with optional context fields.
func Info(message string, context map[string]any) {
	entry(context).Info(message)
}

// Warn logs a warning message with optional context fields.
func Warn(message string, context map[string]any) {
	entry(context).Warn(message)
}

// Error logs an error message with optional context fields.
func Error(message string, err error, context map[string]any) {
	e := entry(context)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(message)
}
