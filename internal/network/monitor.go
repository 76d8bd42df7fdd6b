// Package network tracks the process-wide connectivity state.
package network

import (
	"sync"
	"time"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/notify"
)

// State is the connectivity state seen by the rest of the process.
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// DefaultReconnectDelay leaves the remote client a moment to finish
// initializing before the post-reconnect drain fires.
const DefaultReconnectDelay = 2 * time.Second

// Config assembles a Monitor.
type Config struct {
	// Initial is the state read from the environment at startup.
	// Empty defaults to online.
	Initial State

	// ReconnectDelay is how long after an offline-to-online transition
	// the OnReconnect trigger fires.
	ReconnectDelay time.Duration

	// Notifier receives the reconnected/disconnected messages.
	Notifier notify.Notifier

	// OnReconnect is invoked exactly once per offline-to-online
	// transition, after ReconnectDelay. Production wiring starts a queue
	// drain here; tests can pass a synchronous function and observe it.
	OnReconnect func()
}

// Monitor is a two-state machine fed by connectivity signals from an
// injected event source. It is the single source of truth components
// consult to decide "queue this write or attempt it directly".
type Monitor struct {
	mu             sync.Mutex
	state          State
	reconnectDelay time.Duration
	notifier       notify.Notifier
	onReconnect    func()
}

// NewMonitor creates a Monitor from cfg.
func NewMonitor(cfg Config) *Monitor {
	state := cfg.Initial
	if state == "" {
		state = StateOnline
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Monitor{
		state:          state,
		reconnectDelay: delay,
		notifier:       notifier,
		onReconnect:    cfg.OnReconnect,
	}
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Online reports whether the current state is online.
func (m *Monitor) Online() bool {
	return m.State() == StateOnline
}

// SetOnline records a became-reachable signal. Repeated signals while
// already online are ignored. The reconnected notification fires
// immediately; the drain trigger fires once after the reconnect delay.
func (m *Monitor) SetOnline() {
	m.mu.Lock()
	if m.state == StateOnline {
		m.mu.Unlock()
		return
	}
	m.state = StateOnline
	delay := m.reconnectDelay
	trigger := m.onReconnect
	m.mu.Unlock()

	logging.Info("network: back online", nil)
	m.notifier.Notify("Back online. Syncing your changes...")
	if trigger != nil {
		time.AfterFunc(delay, trigger)
	}
}

// SetOffline records a became-unreachable signal. Repeated signals while
// already offline are ignored. The queue is not touched.
func (m *Monitor) SetOffline() {
	m.mu.Lock()
	if m.state == StateOffline {
		m.mu.Unlock()
		return
	}
	m.state = StateOffline
	m.mu.Unlock()

	logging.Info("network: connection lost", nil)
	m.notifier.Notify("You're offline. Changes will sync when you reconnect.")
}

// Apply routes a probe result to the matching transition.
func (m *Monitor) Apply(online bool) {
	if online {
		m.SetOnline()
		return
	}
	m.SetOffline()
}
