// Package reconcile applies queued offline operations to the remote
// document store, one merge rule per operation type.
package reconcile

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/errors"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/models"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/remote"
)

const (
	usersCollection    = "users"
	cravingsCollection = "craving_counts"

	goalsField = "progress_goals"
)

// ErrUnknownOperation marks an item whose operation tag has no rule here.
// The synchronizer leaves such items queued rather than dropping them.
var ErrUnknownOperation = apperrors.New(apperrors.ErrUnknownOperation, "no reconciliation rule for operation")

// Applier holds the per-operation merge rules.
type Applier struct {
	store remote.DocumentStore
}

// NewApplier creates an Applier over the given store.
func NewApplier(store remote.DocumentStore) *Applier {
	return &Applier{store: store}
}

// Apply runs the reconciliation rule matching the item's operation type
// against the remote store on behalf of userID.
func (a *Applier) Apply(ctx context.Context, userID string, item models.QueueItem) error {
	switch p := item.Payload.(type) {
	case models.GoalsPayload:
		return a.applyGoals(ctx, userID, p)
	case models.SettingsPayload:
		return a.applySettings(ctx, userID, p)
	case models.CravingPayload:
		return a.applyCraving(ctx, userID, p)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, item.Payload.Operation())
	}
}

// applyGoals replaces the user's goals field wholesale. Last write wins;
// concurrent remote state is not merged.
func (a *Applier) applyGoals(ctx context.Context, userID string, p models.GoalsPayload) error {
	return a.store.UpdateDocument(ctx, usersCollection, userID, map[string]any{
		goalsField: p.Goals,
	})
}

// applySettings merges the payload keys into the user record. Only keys
// present in the payload are touched.
func (a *Applier) applySettings(ctx context.Context, userID string, p models.SettingsPayload) error {
	fields := make(map[string]any, len(p.Settings))
	for k, v := range p.Settings {
		fields[k] = v
	}
	return a.store.UpdateDocument(ctx, usersCollection, userID, fields)
}

// applyCraving bumps the per-day craving counter keyed by user and date.
// The top-level count uses the store's atomic increment. The hour bucket
// has no such primitive and is read-modify-write: two processes bumping
// the same bucket at once can lose one increment. Acceptable for a
// single user per account.
func (a *Applier) applyCraving(ctx context.Context, userID string, p models.CravingPayload) error {
	key := fmt.Sprintf("%s_%s", userID, p.Date)
	hourKey := strconv.Itoa(p.Hour)

	doc, err := a.store.GetDocument(ctx, cravingsCollection, key)
	if err != nil {
		return err
	}

	if !doc.Exists {
		return a.store.SetDocument(ctx, cravingsCollection, key, map[string]any{
			"count":      int64(1),
			"hours":      map[string]any{hourKey: int64(1)},
			"created_at": remote.ServerTimestamp{},
		})
	}

	bucket := int64(0)
	if hours, ok := doc.Data["hours"].(map[string]any); ok {
		bucket = asInt64(hours[hourKey])
	}
	return a.store.UpdateDocument(ctx, cravingsCollection, key, map[string]any{
		"count":            remote.Increment{Amount: 1},
		"hours." + hourKey: bucket + 1,
	})
}

// asInt64 coerces the numeric types a document field can come back as,
// including float64 from JSON decoding.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
