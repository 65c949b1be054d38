package upstream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yourorg/listings-api/internal/cache"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestClientGetStripsEmptyParamsAndSendsSecrets(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.Header.Get("accesskey") != "abc" {
			t.Errorf("accesskey header = %q", r.Header.Get("accesskey"))
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		Name: "t", BaseURL: srv.URL, Logger: quiet,
		Headers:      map[string]string{"accesskey": "abc"},
		SecretParams: map[string]string{"key": "s3cret"},
	})
	if _, err := c.Get(context.Background(), nil, "/x", map[string]string{"city": "", "lp": "100", "hp": " "}); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "key=s3cret&lp=100" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestClientCachesBodies(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	store := cache.NewTTL[[]byte](time.Minute)
	c := NewClient(ClientConfig{Name: "t", BaseURL: srv.URL, Logger: quiet, SecretParams: map[string]string{"key": "k"}})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, store, "/listings", map[string]string{"b": "2", "a": "1"}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.Get(ctx, store, "/listings", map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("server hits = %d, want 1", n)
	}
	if store.Size(ctx) != 1 {
		t.Fatalf("cache size = %d", store.Size(ctx))
	}
	if _, ok := store.Get(ctx, cache.Key("t/listings", map[string]string{"a": "1", "b": "2"})); !ok {
		t.Fatal("cache key should exclude secret params")
	}
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"message":"nope"}`, ErrNotFound},
		{"server error", http.StatusInternalServerError, `oops`, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, ErrUnavailable},
		{"invalid json", http.StatusOK, `{not json`, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			store := cache.NewTTL[[]byte](time.Minute)
			c := NewClient(ClientConfig{Name: "t", BaseURL: srv.URL, Logger: quiet})
			_, err := c.Get(context.Background(), store, "/x", nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if store.Size(context.Background()) != 0 {
				t.Fatal("failures must not be cached")
			}
		})
	}
}

func TestClientEmptyBodyIsNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	c := NewClient(ClientConfig{Name: "t", BaseURL: srv.URL, Logger: quiet})
	b, err := c.Get(context.Background(), nil, "/x", nil)
	if err != nil || string(b) != "null" {
		t.Fatalf("body = %q err = %v", b, err)
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(ClientConfig{Name: "t", BaseURL: srv.URL, Timeout: 50 * time.Millisecond, Logger: quiet})
	start := time.Now()
	_, err := c.Get(context.Background(), nil, "/slow", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewClient(ClientConfig{Name: "t", BaseURL: url, Timeout: time.Second, Logger: quiet})
	if _, err := c.Get(context.Background(), nil, "/x", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestClientThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c := NewClient(ClientConfig{Name: "t", BaseURL: srv.URL, RPS: 0.001, Burst: 1, Logger: quiet})
	ctx := context.Background()
	if _, err := c.Get(ctx, nil, "/x", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, nil, "/x", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("second call err = %v, want throttled", err)
	}
}
