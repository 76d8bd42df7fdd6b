package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/models"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync/reconcile"
)

// fakeQueue is an in-memory Queue that accepts pre-aged items.
type fakeQueue struct {
	mu    sync.Mutex
	items []models.QueueItem
}

func (q *fakeQueue) add(items ...models.QueueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

func (q *fakeQueue) Dequeue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

func (q *fakeQueue) PeekAll() []models.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.QueueItem(nil), q.items...)
}

func (q *fakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// fakeApplier records applications and delegates to fn.
type fakeApplier struct {
	mu      sync.Mutex
	applied []string
	fn      func(item models.QueueItem) error
}

func (a *fakeApplier) Apply(ctx context.Context, userID string, item models.QueueItem) error {
	a.mu.Lock()
	a.applied = append(a.applied, item.ID)
	a.mu.Unlock()
	if a.fn != nil {
		return a.fn(item)
	}
	return nil
}

func (a *fakeApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

type fakeIdentity struct {
	userID string
	ok     bool
}

func (f fakeIdentity) CurrentUserID() (string, bool) { return f.userID, f.ok }

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newItem(id string, age time.Duration, now time.Time) models.QueueItem {
	return models.QueueItem{
		ID:        id,
		Timestamp: now.Add(-age),
		Payload:   models.SettingsPayload{Settings: map[string]any{"k": id}},
	}
}

func newTestEngine(q Queue, a Applier, opts ...func(*Config)) (*Engine, *recordingNotifier) {
	notifier := &recordingNotifier{}
	cfg := Config{
		Queue:    q,
		Applier:  a,
		Identity: fakeIdentity{userID: "user-1", ok: true},
		Notifier: notifier,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(cfg), notifier
}

func TestDrainEmptyQueueIsNoop(t *testing.T) {
	applier := &fakeApplier{}
	engine, notifier := newTestEngine(&fakeQueue{}, applier)

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 0, applier.count())
	assert.Empty(t, notifier.all())
}

func TestDrainAppliesInInsertionOrder(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("a", time.Minute, now), newItem("b", time.Minute, now), newItem("c", time.Minute, now))
	applier := &fakeApplier{}
	engine, notifier := newTestEngine(q, applier)

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Synced)
	assert.Equal(t, []string{"a", "b", "c"}, applier.applied)
	assert.Equal(t, 0, q.Len())
	require.Len(t, notifier.all(), 1)
	assert.Equal(t, "3 change(s) synchronized", notifier.all()[0])
}

func TestDrainTransientFailureRetains(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("a", time.Hour, now))
	applier := &fakeApplier{fn: func(models.QueueItem) error {
		return fmt.Errorf("remote unreachable")
	}}
	engine, notifier := newTestEngine(q, applier)

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Evicted)
	assert.Equal(t, 1, q.Len(), "failed item must stay queued")
	assert.Empty(t, notifier.all(), "failures are never surfaced to the user")
}

func TestDrainEvictsStaleFailure(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("stale", 8*24*time.Hour, now))
	applier := &fakeApplier{fn: func(models.QueueItem) error {
		return fmt.Errorf("remote unreachable")
	}}
	engine, notifier := newTestEngine(q, applier, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
	})

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Synced, "eviction is not a success")
	assert.Equal(t, 1, res.Evicted)
	assert.Equal(t, 0, q.Len(), "stale item must be dropped")
	assert.Empty(t, notifier.all())
}

func TestDrainStaleBoundaryRetainsAtExactlySevenDays(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("boundary", DefaultStaleAfter, now))
	applier := &fakeApplier{fn: func(models.QueueItem) error {
		return fmt.Errorf("remote unreachable")
	}}
	engine, _ := newTestEngine(q, applier, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
	})

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	// Age must exceed the cutoff to evict; exactly at it, the item stays.
	assert.Equal(t, 0, res.Evicted)
	assert.Equal(t, 1, q.Len())
}

func TestDrainStaleSuccessStillCounts(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("old-but-fine", 9*24*time.Hour, now))
	applier := &fakeApplier{}
	engine, _ := newTestEngine(q, applier, func(cfg *Config) {
		cfg.Clock = func() time.Time { return now }
	})

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	// Staleness only applies to failures; an old item that applies
	// cleanly is a normal success.
	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 0, res.Evicted)
}

func TestDrainUnauthenticatedRetains(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("a", time.Minute, now))
	applier := &fakeApplier{}
	engine, notifier := newTestEngine(q, applier, func(cfg *Config) {
		cfg.Identity = fakeIdentity{ok: false}
	})

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, applier.count(), "no remote call without an identity")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, q.Len())
	assert.Empty(t, notifier.all())
}

func TestDrainUnknownOperationSkipped(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(models.QueueItem{
		ID:        "mystery",
		Timestamp: now.Add(-time.Minute),
		Payload:   models.RawPayload{Op: "export_data", Data: json.RawMessage(`{}`)},
	})
	applier := &fakeApplier{fn: func(models.QueueItem) error {
		return fmt.Errorf("wrapped: %w", reconcile.ErrUnknownOperation)
	}}
	engine, _ := newTestEngine(q, applier)

	res, err := engine.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, q.Len(), "unknown operations stay queued")
}

func TestDrainConcurrentInvocationIsNoop(t *testing.T) {
	now := time.Now()
	q := &fakeQueue{}
	q.add(newItem("a", time.Minute, now))

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	applier := &fakeApplier{fn: func(models.QueueItem) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}}
	engine, _ := newTestEngine(q, applier)

	done := make(chan *Result, 1)
	go func() {
		res, _ := engine.Drain(context.Background())
		done <- res
	}()

	<-started
	assert.True(t, engine.InProgress())

	// A second trigger while the first pass is in flight is dropped.
	res, err := engine.Drain(context.Background())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDrainInProgress))

	close(release)
	first := <-done
	assert.Equal(t, 1, first.Synced)
	assert.Equal(t, 1, applier.count(), "second invocation must not reach the remote")
	assert.False(t, engine.InProgress())
}
