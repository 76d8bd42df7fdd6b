package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/errors"
)

func newTestStore(url string) *HTTPStore {
	return NewHTTPStore(HTTPStoreOptions{
		BaseURL:   url,
		APIKey:    "test-key",
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	})
}

func TestGetDocumentFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/documents/users/user-1", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"currency":"EUR"}}`)
	}))
	defer server.Close()

	doc, err := newTestStore(server.URL).GetDocument(context.Background(), "users", "user-1")
	require.NoError(t, err)
	assert.True(t, doc.Exists)
	assert.Equal(t, "EUR", doc.Data["currency"])
}

func TestGetDocumentMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	doc, err := newTestStore(server.URL).GetDocument(context.Background(), "users", "nobody")
	require.NoError(t, err, "a missing document is not an error")
	assert.False(t, doc.Exists)
}

func TestUpdateDocumentEncodesSentinels(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
	}))
	defer server.Close()

	err := newTestStore(server.URL).UpdateDocument(context.Background(), "craving_counts", "user-1_2026-08-30", map[string]any{
		"count":    Increment{Amount: 1},
		"hours.14": int64(3),
	})
	require.NoError(t, err)

	fields := body["fields"].(map[string]any)
	count := fields["count"].(map[string]any)
	assert.Equal(t, "increment", count["__op"])
	assert.Equal(t, float64(1), count["amount"])
	assert.Equal(t, float64(3), fields["hours.14"])
}

func TestSetDocumentEncodesServerTimestamp(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
	}))
	defer server.Close()

	err := newTestStore(server.URL).SetDocument(context.Background(), "craving_counts", "user-1_2026-08-30", map[string]any{
		"count":      int64(1),
		"created_at": ServerTimestamp{},
	})
	require.NoError(t, err)

	data := body["data"].(map[string]any)
	createdAt := data["created_at"].(map[string]any)
	assert.Equal(t, "server_timestamp", createdAt["__op"])
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"data":{}}`)
	}))
	defer server.Close()

	_, err := newTestStore(server.URL).GetDocument(context.Background(), "users", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestStore(server.URL).GetDocument(context.Background(), "users", "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRemoteUnavailable))
	// initial attempt plus MaxRetries
	assert.Equal(t, int32(4), attempts.Load())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := newTestStore(server.URL).UpdateDocument(context.Background(), "users", "user-1", map[string]any{"k": "v"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRemoteRejected))
	assert.Equal(t, int32(1), attempts.Load())
}
