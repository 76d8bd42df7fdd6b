// Package storage provides the durable key-value medium backing the offline queue.
package storage

// KV is a durable string key-value store. Both calls are synchronous from
// the caller's point of view.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}
