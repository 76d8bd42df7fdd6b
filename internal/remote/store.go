// Package remote defines the document-store port the sync core reconciles
// against, plus the identity port supplied by the session provider.
package remote

import "context"

// Document is a snapshot of a remote record.
type Document struct {
	Exists bool
	Data   map[string]any
}

// Increment is an atomic-increment sentinel. A store implementation that
// finds one in a field map must add Amount to the current numeric value of
// that field server-side, not read-then-write it.
type Increment struct {
	Amount int64
}

// ServerTimestamp is a sentinel resolved by the store to an authoritative
// creation time.
type ServerTimestamp struct{}

// DocumentStore is the port to the remote document database. Implementations
// must resolve Increment and ServerTimestamp sentinel values found in
// Set/Update field maps. Field names containing dots address nested maps
// ("hours.14" touches key "14" inside the "hours" map).
type DocumentStore interface {
	// GetDocument fetches one record. A missing record is not an error;
	// it comes back with Exists=false.
	GetDocument(ctx context.Context, collection, key string) (Document, error)

	// SetDocument writes a full record, replacing anything present.
	SetDocument(ctx context.Context, collection, key string, data map[string]any) error

	// UpdateDocument writes only the given fields, leaving others untouched.
	UpdateDocument(ctx context.Context, collection, key string, fields map[string]any) error
}

// Identity resolves the currently signed-in user.
type Identity interface {
	// CurrentUserID returns the signed-in user id, or false when no user
	// is authenticated.
	CurrentUserID() (string, bool)
}

// StaticIdentity is an Identity with a fixed user id, used by the daemon
// where the user is set once through configuration.
type StaticIdentity struct {
	UserID string
}

// CurrentUserID implements Identity.
func (s StaticIdentity) CurrentUserID() (string, bool) {
	return s.UserID, s.UserID != ""
}
