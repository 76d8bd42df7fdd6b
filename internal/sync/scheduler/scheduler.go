// Package scheduler runs the background loops that keep the offline queue
// moving: a connectivity probe feeding the network monitor, and a periodic
// drain retrying whatever the reconnect trigger left behind.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/network"
	syncpkg "github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/telemetry"
)

// Engine is the drain entry point the scheduler triggers.
type Engine interface {
	Drain(ctx context.Context) (*syncpkg.Result, error)
	InProgress() bool
}

// Config holds scheduler intervals.
type Config struct {
	ProbeInterval time.Duration // how often connectivity is checked
	DrainInterval time.Duration // how often leftovers are retried while online
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		ProbeInterval: 30 * time.Second,
		DrainInterval: 1 * time.Minute,
	}
}

// Scheduler owns the two background goroutines.
type Scheduler struct {
	engine        Engine
	monitor       *network.Monitor
	prober        network.Prober
	probeInterval time.Duration
	drainInterval time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu         sync.RWMutex
	isRunning  bool
	lastDrain  time.Time
	lastResult *syncpkg.Result
}

// New creates a Scheduler. A nil cfg uses DefaultConfig.
func New(engine Engine, monitor *network.Monitor, prober network.Prober, cfg *Config) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		engine:        engine,
		monitor:       monitor,
		prober:        prober,
		probeInterval: cfg.ProbeInterval,
		drainInterval: cfg.DrainInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the probe and drain loops. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.probeLoop(ctx)
	go s.drainLoop(ctx)

	logging.Info("sync scheduler started", map[string]any{
		"probe_interval": s.probeInterval.String(),
		"drain_interval": s.drainInterval.String(),
	})
}

// Stop shuts the loops down and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	logging.Info("sync scheduler stopped", nil)
}

// probeLoop feeds connectivity transitions into the monitor. The monitor
// handles the reconnect side effects, so the loop only reports.
func (s *Scheduler) probeLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			s.monitor.Apply(s.prober.Check(probeCtx))
			cancel()
		}
	}
}

// drainLoop retries queued leftovers while online. The reconnect trigger
// handles the transition case; this loop covers items that failed
// transiently after that.
func (s *Scheduler) drainLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.monitor.Online() {
				continue
			}
			if s.engine.InProgress() {
				logging.Debug("drain already in progress, skipping tick", nil)
				continue
			}
			s.runDrain(ctx)
		}
	}
}

func (s *Scheduler) runDrain(ctx context.Context) {
	res, err := s.engine.Drain(ctx)
	if err != nil {
		if !errors.Is(err, syncpkg.ErrDrainInProgress) {
			logging.Error("scheduled drain failed", err, nil)
		}
		return
	}

	s.mu.Lock()
	s.lastDrain = time.Now()
	s.lastResult = res
	s.mu.Unlock()
}

// Status is a point-in-time report of scheduler state.
type Status struct {
	IsRunning  bool
	Online     bool
	LastDrain  *time.Time
	LastResult *syncpkg.Result
	Counters   map[string]int64
}

// Status returns the current scheduler status.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		IsRunning:  s.isRunning,
		Online:     s.monitor.Online(),
		LastResult: s.lastResult,
		Counters:   telemetry.Snapshot(),
	}
	if !s.lastDrain.IsZero() {
		t := s.lastDrain
		status.LastDrain = &t
	}
	return status
}
