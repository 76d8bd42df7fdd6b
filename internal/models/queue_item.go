// Package models defines the data model for queued offline operations.
package models

import (
	"encoding/json"
	"time"
)

// Operation labels the kind of write a queue item carries.
type Operation string

const (
	OperationUpdateGoals    Operation = "update_goals"
	OperationRecordCraving  Operation = "record_craving"
	OperationUpdateSettings Operation = "update_settings"
)

// Payload is the operation-specific body of a queue item. The concrete type
// determines which reconciliation rule applies; a type switch over Payload
// covers the closed set of operations, so adding an operation means adding a
// payload type and the compiler points at every switch that misses it.
type Payload interface {
	Operation() Operation
}

// GoalsPayload replaces the user's progress goals wholesale.
type GoalsPayload struct {
	Goals map[string]any `json:"goals"`
}

// Operation implements Payload.
func (GoalsPayload) Operation() Operation { return OperationUpdateGoals }

// SettingsPayload merges the contained keys into the user's settings.
// Keys absent from the payload are left untouched remotely.
type SettingsPayload struct {
	Settings map[string]any `json:"settings"`
}

// Operation implements Payload.
func (SettingsPayload) Operation() Operation { return OperationUpdateSettings }

// CravingPayload records one craving tap for a calendar day and hour bucket.
type CravingPayload struct {
	Date string `json:"date"` // calendar day, YYYY-MM-DD
	Hour int    `json:"hour"` // local hour bucket, 0-23
}

// Operation implements Payload.
func (CravingPayload) Operation() Operation { return OperationRecordCraving }

// RawPayload preserves an envelope whose operation tag has no decoder in this
// build. It survives JSON round-trips byte for byte so a later release that
// understands the tag can still pick the item up.
type RawPayload struct {
	Op   Operation
	Data json.RawMessage
}

// Operation implements Payload.
func (p RawPayload) Operation() Operation { return p.Op }

// QueueItem is one pending write awaiting application to the remote store.
type QueueItem struct {
	ID        string
	Timestamp time.Time
	Payload   Payload
}

// Age returns how long the item has been queued as of now.
func (it QueueItem) Age(now time.Time) time.Duration {
	return now.Sub(it.Timestamp)
}

// envelope is the persisted wire form of a QueueItem.
type envelope struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      Operation       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the item as a tagged envelope.
func (it QueueItem) MarshalJSON() ([]byte, error) {
	var body json.RawMessage
	switch p := it.Payload.(type) {
	case RawPayload:
		body = p.Data
	default:
		encoded, err := json.Marshal(it.Payload)
		if err != nil {
			return nil, err
		}
		body = encoded
	}
	return json.Marshal(envelope{
		ID:        it.ID,
		Timestamp: it.Timestamp,
		Type:      it.Payload.Operation(),
		Payload:   body,
	})
}

// UnmarshalJSON decodes a tagged envelope. Unknown operation tags decode to
// RawPayload rather than failing, so one unrecognized item cannot take the
// whole persisted queue down with it.
func (it *QueueItem) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	it.ID = env.ID
	it.Timestamp = env.Timestamp
	switch env.Type {
	case OperationUpdateGoals:
		var p GoalsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		it.Payload = p
	case OperationUpdateSettings:
		var p SettingsPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		it.Payload = p
	case OperationRecordCraving:
		var p CravingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		it.Payload = p
	default:
		it.Payload = RawPayload{
			Op:   env.Type,
			Data: append(json.RawMessage(nil), env.Payload...),
		}
	}
	return nil
}
