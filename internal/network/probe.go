package network

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// Prober reports whether the remote store is currently reachable. It is the
// production event source behind the Monitor; tests drive the Monitor
// directly instead.
type Prober interface {
	Check(ctx context.Context) bool
}

// ProbeFunc adapts a plain function to a Prober.
type ProbeFunc func(ctx context.Context) bool

// Check implements Prober.
func (f ProbeFunc) Check(ctx context.Context) bool { return f(ctx) }

// HTTPProbe checks reachability against the remote health endpoint.
type HTTPProbe struct {
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe for the store at baseURL.
func NewHTTPProbe(baseURL string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProbe{
		url:    strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/v1/health",
		client: &http.Client{Timeout: timeout},
	}
}

// Check implements Prober. Any 2xx answer counts as reachable.
func (p *HTTPProbe) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
