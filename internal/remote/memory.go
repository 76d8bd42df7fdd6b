package remote

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory DocumentStore. It resolves the Increment and
// ServerTimestamp sentinels locally and supports dotted field paths on
// update. Tests use it as the remote collaborator; the daemon falls back to
// it when no remote URL is configured.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]map[string]any
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]any),
		now:  time.Now,
	}
}

func docKey(collection, key string) string {
	return collection + "/" + key
}

// GetDocument implements DocumentStore.
func (m *MemoryStore) GetDocument(ctx context.Context, collection, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docKey(collection, key)]
	if !ok {
		return Document{Exists: false}, nil
	}
	return Document{Exists: true, Data: deepCopy(doc)}, nil
}

// SetDocument implements DocumentStore.
func (m *MemoryStore) SetDocument(ctx context.Context, collection, key string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := make(map[string]any, len(data))
	for field, value := range data {
		doc[field] = m.resolve(nil, value)
	}
	m.docs[docKey(collection, key)] = doc
	return nil
}

// UpdateDocument implements DocumentStore. Updating a missing record creates
// it, which keeps partial writes usable for first-time user records.
func (m *MemoryStore) UpdateDocument(ctx context.Context, collection, key string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docKey(collection, key)]
	if !ok {
		doc = make(map[string]any)
		m.docs[docKey(collection, key)] = doc
	}
	for path, value := range fields {
		m.setPath(doc, path, value)
	}
	return nil
}

// setPath writes value at a dotted field path, creating nested maps as needed.
func (m *MemoryStore) setPath(doc map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	target := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := target[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			target[part] = next
		}
		target = next
	}
	leaf := parts[len(parts)-1]
	target[leaf] = m.resolve(target[leaf], value)
}

// resolve replaces sentinel values with their effect on the current value.
func (m *MemoryStore) resolve(current, value any) any {
	switch v := value.(type) {
	case Increment:
		return asInt64(current) + v.Amount
	case ServerTimestamp:
		return m.now().UTC()
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, nested := range v {
			out[k] = m.resolve(nil, nested)
		}
		return out
	default:
		return value
	}
}

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

func deepCopy(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopy(nested)
			continue
		}
		out[k] = v
	}
	return out
}
