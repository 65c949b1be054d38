package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/yourorg/listings-api/internal/cache"
)

const maxBody = 4 << 20

type ClientConfig struct {
	Name    string
	BaseURL string
	Headers map[string]string
	// SecretParams are sent on every call but never become part of a cache key.
	SecretParams map[string]string
	Timeout      time.Duration
	RPS          float64 // 0 disables the outbound limiter
	Burst        int
	Logger       *slog.Logger
}

// Client performs single-attempt GETs against one provider. Failing fast is
// preferred to retrying because every caller has a fallback source.
type Client struct {
	name    string
	baseURL string
	headers map[string]string
	secrets map[string]string
	timeout time.Duration
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = cfg.Logger.With("upstream", cfg.Name)

	c := &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: cfg.Headers,
		secrets: cfg.SecretParams,
		timeout: cfg.Timeout,
		http:    rc,
		log:     cfg.Logger,
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RPS) + 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c
}

// Get fetches path with params and returns the JSON body. Empty params are
// dropped. When store is non-nil the body is served from and saved to it,
// keyed by path and the non-secret params. A 404 maps to ErrNotFound and is
// never cached; everything else that fails maps to ErrUnavailable.
func (c *Client) Get(ctx context.Context, store cache.Cache[[]byte], path string, params map[string]string) ([]byte, error) {
	params = stripEmpty(params)
	key := cache.Key(c.name+path, params)
	if store != nil {
		if b, ok := store.Get(ctx, key); ok {
			c.log.Debug("cache hit", "upstream", c.name, "path", path)
			return b, nil
		}
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return nil, fmt.Errorf("%w: %s %s throttled", ErrUnavailable, c.name, path)
	}

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	for k, v := range c.secrets {
		if v != "" {
			q.Set(k, v)
		}
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s build request: %v", ErrUnavailable, c.name, err)
	}
	req.Header.Set("accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, c.name, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("upstream call", "upstream", c.name, "path", path, "status", resp.StatusCode, "took", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, c.name, path)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %s %s status %d", ErrUnavailable, c.name, path, resp.StatusCode)
	}

	body, err := ioReadAllLimit(resp.Body, maxBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s read: %v", ErrUnavailable, c.name, path, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s %s returned invalid JSON", ErrUnavailable, c.name, path)
	}
	if store != nil {
		store.Set(ctx, key, body)
	}
	return body, nil
}

func stripEmpty(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
