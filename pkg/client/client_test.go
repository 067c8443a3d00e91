package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/school-directory-crawler/pkg/cache"
)

// memoryCache is an in-process ResponseCache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*cache.CacheEntry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*cache.CacheEntry)}
}

func (m *memoryCache) Get(ctx context.Context, key cache.CacheKey) (*cache.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key.String()]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return e, nil
}

func (m *memoryCache) Set(ctx context.Context, key cache.CacheKey, entry *cache.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key.String()] = entry
	return nil
}

func (m *memoryCache) TTL() time.Duration { return time.Hour }

func newTestClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig(baseURL, "school-crawler-test/1.0")
	cfg.Retry = fastRetry(1)
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:     "empty base url",
			mutate:   func(c *Config) { c.BaseURL = "" },
			errorMsg: "base url is required",
		},
		{
			name:     "negative timeout",
			mutate:   func(c *Config) { c.Timeout = -time.Second },
			errorMsg: "timeout must be >= 0 (got -1s)",
		},
		{
			name:     "zero attempts",
			mutate:   func(c *Config) { c.Retry.MaxAttempts = 0 },
			errorMsg: "max attempts must be >= 1 (got 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(DefaultBaseURL, "test")
			tt.mutate(&cfg)
			_, err := New(cfg)

			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.errorMsg {
				t.Errorf("Error = %v, want %q", err, tt.errorMsg)
			}
		})
	}
}

func TestClient_URL(t *testing.T) {
	c := newTestClient(t, DefaultBaseURL, nil)

	got := c.URL(Request{
		Path:  "satuan-pendidikan/download",
		Query: url.Values{"kodeKecamatan": {"010101"}, "format": {"csv"}},
	})
	want := "https://api.data.belajar.id/data-portal-backend/v1/master-data/satuan-pendidikan/download?format=csv&kodeKecamatan=010101"
	if got != want {
		t.Errorf("URL() = %s, want %s", got, want)
	}

	// Base without trailing slash keeps its last segment.
	c2 := newTestClient(t, "http://example.test/api/v1", nil)
	if got := c2.URL(Request{Path: "/x/y"}); got != "http://example.test/api/v1/x/y" {
		t.Errorf("URL() = %s", got)
	}
}

func TestClient_Get(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true}`))
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	resp, err := c.Get(ctx, Request{Kind: "detail", Path: "ok"})
	if err != nil {
		t.Fatalf("Get(ok) error = %v", err)
	}
	if resp.StatusCode != 200 || string(resp.Body) != `{"ok":true}` {
		t.Errorf("Get(ok) = %d %q", resp.StatusCode, resp.Body)
	}
	if resp.ContentType != "application/json" {
		t.Errorf("ContentType = %q", resp.ContentType)
	}
	if userAgent != "school-crawler-test/1.0" {
		t.Errorf("User-Agent = %q", userAgent)
	}

	resp, err = c.Get(ctx, Request{Kind: "detail", Path: "missing"})
	if err != nil {
		t.Fatalf("Get(missing) error = %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
	if got := resp.StatusLine(); got != "HTTP/1.1 404 Not Found" {
		t.Errorf("StatusLine() = %q", got)
	}

	resp, err = c.Get(ctx, Request{Kind: "detail", Path: "boom"})
	if err != nil {
		t.Fatalf("Get(boom) error = %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
}

func TestClient_Get_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	c := newTestClient(t, base, nil)
	_, err := c.Get(context.Background(), Request{Kind: "list", Path: "x"})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Get() error = %v, want *TransportError", err)
	}
}

func TestClient_Get_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })
	_, err := c.Get(context.Background(), Request{Kind: "list", Path: "slow"})
	if !IsTransport(err) {
		t.Errorf("Get() error = %v, want transport error", err)
	}
}

func TestClient_Get_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Retry = fastRetry(3) })
	resp, err := c.Get(context.Background(), Request{Kind: "detail", Path: "x"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.StatusCode != 200 || calls.Load() != 3 {
		t.Errorf("status = %d after %d calls, want 200 after 3", resp.StatusCode, calls.Load())
	}
}

func TestClient_Get_ServerErrorAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Retry = fastRetry(2) })
	resp, err := c.Get(context.Background(), Request{Kind: "detail", Path: "x"})
	if err != nil {
		t.Fatalf("Get() error = %v, want last 5xx response", err)
	}
	if resp.StatusCode != 503 || calls.Load() != 2 {
		t.Errorf("status = %d after %d calls, want 503 after 2", resp.StatusCode, calls.Load())
	}
}

func TestClient_Get_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Retry = fastRetry(3) })
	if _, err := c.Get(context.Background(), Request{Kind: "detail", Path: "x"}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestClient_Get_Cache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("body-" + r.URL.Query().Get("k")))
	}))
	defer server.Close()

	mc := newMemoryCache()
	c := newTestClient(t, server.URL, func(cfg *Config) { cfg.Cache = mc })
	ctx := context.Background()
	req := Request{Kind: "list", Path: "data", Query: url.Values{"k": {"1"}}}

	first, err := c.Get(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Get(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1", calls.Load())
	}
	if first.FromCache || !second.FromCache {
		t.Errorf("FromCache = %v/%v, want false/true", first.FromCache, second.FromCache)
	}
	if string(second.Body) != "body-1" || second.StatusCode != 200 {
		t.Errorf("cached response = %d %q", second.StatusCode, second.Body)
	}

	// 404s are never cached.
	for i := 0; i < 2; i++ {
		if _, err := c.Get(ctx, Request{Kind: "detail", Path: "missing"}); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 3 {
		t.Errorf("upstream calls = %d, want 3", calls.Load())
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{200, ""},
		{404, ErrorClassClient},
		{403, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
