// Package sync drains the offline operation queue against the remote
// document store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/errors"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/models"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/notify"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/remote"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync/reconcile"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/telemetry"
)

const (
	// DefaultStaleAfter is how old a failing item may grow before it is
	// dropped as unrecoverable instead of retried.
	DefaultStaleAfter = 7 * 24 * time.Hour

	// DefaultItemTimeout bounds each item's remote call during a drain so
	// a hung call cannot stall the pass forever.
	DefaultItemTimeout = 30 * time.Second
)

// ErrDrainInProgress is returned to a caller whose drain was dropped because
// another pass is still running. The caller does not wait; the running pass
// already covers the same items.
var ErrDrainInProgress = apperrors.New(apperrors.ErrSyncInProgress, "drain already in progress")

// Queue is the durable operation log the engine drains.
type Queue interface {
	Dequeue(id string)
	PeekAll() []models.QueueItem
	Len() int
}

// Applier applies one queued operation to remote state.
type Applier interface {
	Apply(ctx context.Context, userID string, item models.QueueItem) error
}

// Result summarizes one drain pass.
type Result struct {
	Synced   int
	Failed   int
	Evicted  int
	Skipped  int
	Duration time.Duration
}

// Config assembles an Engine. Queue, Applier and Identity are required;
// the rest default.
type Config struct {
	Queue       Queue
	Applier     Applier
	Identity    remote.Identity
	Notifier    notify.Notifier
	StaleAfter  time.Duration
	ItemTimeout time.Duration
	Clock       func() time.Time
}

// Engine drains the queue one item at a time, in insertion order, applying
// the per-type reconciliation rules. A drain is mutually exclusive with
// itself through an in-progress flag; concurrent triggers are dropped, not
// queued.
type Engine struct {
	queue       Queue
	applier     Applier
	identity    remote.Identity
	notifier    notify.Notifier
	staleAfter  time.Duration
	itemTimeout time.Duration
	now         func() time.Time
	inProgress  atomic.Bool
}

// NewEngine creates an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		queue:       cfg.Queue,
		applier:     cfg.Applier,
		identity:    cfg.Identity,
		notifier:    cfg.Notifier,
		staleAfter:  cfg.StaleAfter,
		itemTimeout: cfg.ItemTimeout,
		now:         cfg.Clock,
	}
	if e.notifier == nil {
		e.notifier = notify.Log{}
	}
	if e.staleAfter <= 0 {
		e.staleAfter = DefaultStaleAfter
	}
	if e.itemTimeout <= 0 {
		e.itemTimeout = DefaultItemTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// InProgress reports whether a drain pass is currently running.
func (e *Engine) InProgress() bool {
	return e.inProgress.Load()
}

// Drain attempts to reconcile every currently queued item in insertion
// order. Items that apply cleanly are removed; items that fail stay queued
// for the next pass unless they have aged past the staleness cutoff, in
// which case they are dropped. Returns ErrDrainInProgress when a
// pass is already running.
func (e *Engine) Drain(ctx context.Context) (*Result, error) {
	if !e.inProgress.CompareAndSwap(false, true) {
		return nil, ErrDrainInProgress
	}
	defer e.inProgress.Store(false)

	items := e.queue.PeekAll()
	if len(items) == 0 {
		return &Result{}, nil
	}

	start := e.now()
	res := &Result{}
	telemetry.AddDrains(1)
	logging.Info("sync: drain started", map[string]any{"pending": len(items)})

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		userID, ok := e.identity.CurrentUserID()
		if !ok {
			// Cannot reconcile unauthenticated. The item stays queued
			// for a pass after sign-in.
			res.Failed++
			logging.Warn("sync: no signed-in user, item kept", map[string]any{
				"id": item.ID,
			})
			continue
		}

		err := e.applyOne(ctx, userID, item)
		switch {
		case err == nil:
			e.queue.Dequeue(item.ID)
			res.Synced++
		case errors.Is(err, reconcile.ErrUnknownOperation):
			res.Skipped++
			logging.Warn("sync: unknown operation type left queued", map[string]any{
				"id":   item.ID,
				"type": string(item.Payload.Operation()),
			})
		default:
			res.Failed++
			if item.Age(e.now()) > e.staleAfter {
				e.queue.Dequeue(item.ID)
				res.Evicted++
				telemetry.AddEvicted(1)
				logging.Warn("sync: stale item dropped as unrecoverable", map[string]any{
					"id":    item.ID,
					"age":   item.Age(e.now()).String(),
					"error": err.Error(),
				})
			} else {
				logging.Warn("sync: item failed, will retry", map[string]any{
					"id":    item.ID,
					"type":  string(item.Payload.Operation()),
					"error": err.Error(),
				})
			}
		}
	}

	res.Duration = e.now().Sub(start)
	telemetry.AddSynced(res.Synced)
	telemetry.AddFailed(res.Failed)

	if res.Synced > 0 {
		e.notifier.Notify(fmt.Sprintf("%d change(s) synchronized", res.Synced))
	}
	logging.Info("sync: drain finished", map[string]any{
		"synced":  res.Synced,
		"failed":  res.Failed,
		"evicted": res.Evicted,
		"skipped": res.Skipped,
	})
	return res, nil
}

func (e *Engine) applyOne(ctx context.Context, userID string, item models.QueueItem) error {
	itemCtx, cancel := context.WithTimeout(ctx, e.itemTimeout)
	defer cancel()
	return e.applier.Apply(itemCtx, userID, item)
}
