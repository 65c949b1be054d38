// Package cache memoizes upstream results with a fixed time-to-live.
package cache

import (
	"context"
	"net/url"
)

// Cache stores values for a fixed TTL. Get reports a miss with ok=false, so a
// cached empty value is still a hit.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, v V)
	Clear(ctx context.Context)
	Size(ctx context.Context) int
}

// Key builds a deterministic key from an operation name and its parameters.
// Parameters are sorted by name and escaped, so the same query in a different
// order maps to the same key and a value cannot forge another parameter.
func Key(op string, params map[string]string) string {
	vals := make(url.Values, len(params))
	for k, v := range params {
		vals.Set(k, v)
	}
	return op + ":" + vals.Encode()
}
