// Package notify bridges sync status events to whatever UI is attached.
package notify

import (
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
)

// Notifier receives human-readable status messages. The receiving side
// decides rendering and duration; delivery is fire and forget and must
// never block sync progress.
type Notifier interface {
	Notify(message string)
}

// Func adapts a plain function to a Notifier.
type Func func(message string)

// Notify implements Notifier.
func (f Func) Notify(message string) { f(message) }

// Log is a Notifier that writes messages to the structured log. It is the
// default when no UI is attached, as in daemon mode.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(message string) {
	logging.Info("notification", map[string]any{"message": message})
}

// Discard drops all messages.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(string) {}
