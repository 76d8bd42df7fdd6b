package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/errors"
)

// HTTPStoreOptions configures an HTTPStore. Zero values get sane defaults.
type HTTPStoreOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// HTTPStore is a DocumentStore over the tracker's remote document API.
// Sentinel values are encoded as server-side directives so the increment of
// a counter happens atomically in the store, not here.
type HTTPStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewHTTPStore creates an HTTPStore from opts.
func NewHTTPStore(opts HTTPStoreOptions) *HTTPStore {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &HTTPStore{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		userAgent:  strings.TrimSpace(opts.UserAgent),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// GetDocument implements DocumentStore.
func (c *HTTPStore) GetDocument(ctx context.Context, collection, key string) (Document, error) {
	body, status, err := c.do(ctx, http.MethodGet, c.documentPath(collection, key), nil)
	if err != nil {
		return Document{}, err
	}
	if status == http.StatusNotFound {
		return Document{Exists: false}, nil
	}
	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Document{}, apperrors.Wrap(apperrors.ErrRemoteRejected, "malformed document response", err)
	}
	return Document{Exists: true, Data: payload.Data}, nil
}

// SetDocument implements DocumentStore.
func (c *HTTPStore) SetDocument(ctx context.Context, collection, key string, data map[string]any) error {
	_, _, err := c.do(ctx, http.MethodPut, c.documentPath(collection, key), map[string]any{
		"data": encodeFields(data),
	})
	return err
}

// UpdateDocument implements DocumentStore.
func (c *HTTPStore) UpdateDocument(ctx context.Context, collection, key string, fields map[string]any) error {
	_, _, err := c.do(ctx, http.MethodPatch, c.documentPath(collection, key), map[string]any{
		"fields": encodeFields(fields),
	})
	return err
}

func (c *HTTPStore) documentPath(collection, key string) string {
	return fmt.Sprintf("/v1/documents/%s/%s", collection, key)
}

// encodeFields rewrites sentinel values into wire directives the server
// resolves. Plain values pass through untouched.
func encodeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		out[name] = encodeValue(value)
	}
	return out
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case Increment:
		return map[string]any{"__op": "increment", "amount": v.Amount}
	case ServerTimestamp:
		return map[string]any{"__op": "server_timestamp"}
	case map[string]any:
		return encodeFields(v)
	default:
		return value
	}
}

// do runs one request with bounded retry on network errors and 5xx/429
// responses. A GET 404 is returned to the caller, not retried.
func (c *HTTPStore) do(ctx context.Context, method, path string, payload map[string]any) ([]byte, int, error) {
	var bodyBytes []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		bodyBytes = encoded
	}
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; ; attempt++ {
		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, 0, err
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = apperrors.Wrap(apperrors.ErrRemoteUnavailable, "remote store unreachable", err)
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1)); waitErr != nil {
					return nil, 0, waitErr
				}
				continue
			}
			return nil, 0, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, apperrors.Wrap(apperrors.ErrRemoteUnavailable, "read response", readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return respBody, resp.StatusCode, nil
		case method == http.MethodGet && resp.StatusCode == http.StatusNotFound:
			return respBody, resp.StatusCode, nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = apperrors.New(apperrors.ErrRemoteUnavailable,
				fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode))
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1)); waitErr != nil {
					return nil, resp.StatusCode, waitErr
				}
				continue
			}
			return respBody, resp.StatusCode, lastErr
		default:
			return respBody, resp.StatusCode, apperrors.New(apperrors.ErrRemoteRejected,
				fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode))
		}
	}
}

func (c *HTTPStore) retryDelay(attempt int) time.Duration {
	delay := c.baseDelay << uint(attempt-1)
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
