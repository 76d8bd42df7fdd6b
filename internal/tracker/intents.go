// Package tracker exposes the offline write-intent API the UI action
// handlers call. Each call decides, based on the current network state,
// whether to queue the write for later or tell the caller to write directly.
package tracker

import (
	"time"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/models"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/network"
)

// Queue is the durable offline queue writes fall back to.
type Queue interface {
	Enqueue(p models.Payload) string
	Len() int
}

// Intents routes user write intents between the offline queue and direct
// remote writes.
type Intents struct {
	queue   Queue
	monitor *network.Monitor
	now     func() time.Time
}

// NewIntents creates an Intents service.
func NewIntents(queue Queue, monitor *network.Monitor) *Intents {
	return &Intents{
		queue:   queue,
		monitor: monitor,
		now:     time.Now,
	}
}

// QueueGoalUpdate queues a goals overwrite when offline. It returns false
// without queuing when the network is online; the caller should perform
// the write directly instead.
func (i *Intents) QueueGoalUpdate(goals map[string]any) bool {
	if i.monitor.Online() {
		return false
	}
	i.queue.Enqueue(models.GoalsPayload{Goals: goals})
	return true
}

// QueueSettingsUpdate queues a settings merge when offline, mirroring
// QueueGoalUpdate.
func (i *Intents) QueueSettingsUpdate(settings map[string]any) bool {
	if i.monitor.Online() {
		return false
	}
	i.queue.Enqueue(models.SettingsPayload{Settings: settings})
	return true
}

// QueueCravingRecord always queues, online or not. Craving taps take the
// offline-safe path so a flaky connection can never drop one; the drain
// applies them moments later when the network is up.
func (i *Intents) QueueCravingRecord() bool {
	now := i.now()
	i.queue.Enqueue(models.CravingPayload{
		Date: now.Format("2006-01-02"),
		Hour: now.Hour(),
	})
	return true
}
