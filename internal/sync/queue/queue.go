// Package queue provides the durable FIFO queue of offline write operations.
package queue

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/models"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/storage"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/telemetry"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/uuid"
)

// stateKey is the single storage key holding the JSON-encoded item sequence.
const stateKey = "sync_queue"

// OfflineQueue is an ordered log of pending operations persisted through a
// durable key-value store. Ordering is insertion order; the whole sequence
// is re-persisted on every mutation, never partially updated.
type OfflineQueue struct {
	store storage.KV
	mu    sync.Mutex
	items []models.QueueItem
	now   func() time.Time
}

// New loads the persisted queue from store. Unreadable or corrupt state
// degrades to an empty queue; the next Enqueue rewrites a valid sequence
// over whatever was there.
func New(store storage.KV) *OfflineQueue {
	q := &OfflineQueue{
		store: store,
		now:   time.Now,
	}
	q.load()
	return q
}

func (q *OfflineQueue) load() {
	raw, ok, err := q.store.Get(stateKey)
	if err != nil {
		logging.Warn("offline queue: read failed, starting empty", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if !ok {
		return
	}
	var items []models.QueueItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logging.Warn("offline queue: corrupt persisted state discarded", map[string]any{
			"error": err.Error(),
		})
		return
	}
	q.items = items
}

// Enqueue appends an operation, assigns it an id and creation timestamp,
// persists the sequence, and returns the id. Durability is best effort:
// a failed persist is logged and the item survives only in memory.
func (q *OfflineQueue) Enqueue(p models.Payload) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	item := models.QueueItem{
		ID:        uuid.New(),
		Timestamp: q.now().UTC(),
		Payload:   p,
	}
	q.items = append(q.items, item)
	q.persistLocked()

	telemetry.AddEnqueued(1)
	logging.Info("offline queue: enqueued operation", map[string]any{
		"id":      item.ID,
		"type":    string(p.Operation()),
		"pending": len(q.items),
	})
	return item.ID
}

// Dequeue removes the item with the given id and persists the result.
// A missing id is a no-op, not an error.
func (q *OfflineQueue) Dequeue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.persistLocked()
			return
		}
	}
}

// PeekAll returns a snapshot copy of the queue in insertion order.
func (q *OfflineQueue) PeekAll() []models.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.QueueItem(nil), q.items...)
}

// Len returns the number of queued items.
func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *OfflineQueue) persistLocked() {
	data, err := json.Marshal(q.items)
	if err != nil {
		logging.Error("offline queue: marshal failed", err, map[string]any{
			"pending": len(q.items),
		})
		return
	}
	if err := q.store.Set(stateKey, string(data)); err != nil {
		logging.Error("offline queue: persist failed", err, map[string]any{
			"pending": len(q.items),
		})
	}
}
