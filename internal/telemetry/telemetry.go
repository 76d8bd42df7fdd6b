// Package telemetry provides in-process counters for sync activity.
//
// Counters never leave the process. They exist so the daemon status output
// can report what the sync core has been doing since startup.
package telemetry

import "sync/atomic"

// Counters holds the activity counters for one sync core instance.
type Counters struct {
	enqueued atomic.Int64
	synced   atomic.Int64
	failed   atomic.Int64
	evicted  atomic.Int64
	drains   atomic.Int64
}

var std Counters

// AddEnqueued records n operations appended to the offline queue.
func AddEnqueued(n int) { std.enqueued.Add(int64(n)) }

// AddSynced records n operations successfully reconciled.
func AddSynced(n int) { std.synced.Add(int64(n)) }

// AddFailed records n operations that failed a reconciliation attempt.
func AddFailed(n int) { std.failed.Add(int64(n)) }

// AddEvicted records n operations dropped past the staleness cutoff.
func AddEvicted(n int) { std.evicted.Add(int64(n)) }

// AddDrains records n completed drain passes.
func AddDrains(n int) { std.drains.Add(int64(n)) }

// Snapshot returns the current counter values.
func Snapshot() map[string]int64 {
	return map[string]int64{
		"enqueued": std.enqueued.Load(),
		"synced":   std.synced.Load(),
		"failed":   std.failed.Load(),
		"evicted":  std.evicted.Load(),
		"drains":   std.drains.Load(),
	}
}

// Reset zeroes all counters. Intended for tests.
func Reset() {
	std.enqueued.Store(0)
	std.synced.Store(0)
	std.failed.Store(0)
	std.evicted.Store(0)
	std.drains.Store(0)
}
