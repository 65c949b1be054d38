package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/listings-api/internal/redisx"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestKeyIgnoresParamOrder(t *testing.T) {
	a := Key("listings", map[string]string{"city": "Boston", "bedrooms": "3", "maxPrice": "900000"})
	b := Key("listings", map[string]string{"maxPrice": "900000", "city": "Boston", "bedrooms": "3"})
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
	if a != "listings:bedrooms=3&city=Boston&maxPrice=900000" {
		t.Fatalf("key = %q", a)
	}
	if Key("sold", map[string]string{"city": "Boston"}) == Key("listings", map[string]string{"city": "Boston"}) {
		t.Fatal("operation name must be part of the key")
	}
	if Key("cities", nil) != "cities:" {
		t.Fatalf("empty params key = %q", Key("cities", nil))
	}
}

func TestKeyEscapesValues(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]string
	}{
		{"ampersand in value", map[string]string{"a": "1&b=2"}, map[string]string{"a": "1", "b": "2"}},
		{"equals in value", map[string]string{"city": "x=y"}, map[string]string{"city=x": "y"}},
	}
	for _, tt := range tests {
		if ka, kb := Key("listings", tt.a), Key("listings", tt.b); ka == kb {
			t.Errorf("%s: both map to %q", tt.name, ka)
		}
	}
	if got := Key("listings", map[string]string{"city": "North Andover"}); got != "listings:city=North+Andover" {
		t.Fatalf("key = %q", got)
	}
}

func TestTTLExpiresLazily(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTL[string](5 * time.Minute).WithClock(clk.now)

	c.Set(ctx, "k", "v")
	clk.advance(5 * time.Minute)
	if v, ok := c.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("at expiry boundary: %q %v", v, ok)
	}
	clk.advance(time.Second)
	if c.Size(ctx) != 1 {
		t.Fatal("expired entry should linger until read")
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry should miss")
	}
	if c.Size(ctx) != 0 {
		t.Fatal("expired entry should be deleted on read")
	}
}

func TestTTLDistinguishesMissFromEmpty(t *testing.T) {
	ctx := context.Background()
	c := NewTTL[[]string](time.Minute)
	if _, ok := c.Get(ctx, "absent"); ok {
		t.Fatal("absent key should miss")
	}
	c.Set(ctx, "empty", []string{})
	v, ok := c.Get(ctx, "empty")
	if !ok || v == nil || len(v) != 0 {
		t.Fatalf("cached empty = %v %v", v, ok)
	}
	c.Set(ctx, "nil", nil)
	if _, ok := c.Get(ctx, "nil"); !ok {
		t.Fatal("cached nil should hit")
	}
}

func TestTTLClearAndSize(t *testing.T) {
	ctx := context.Background()
	c := NewTTL[int](time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(ctx, fmt.Sprint(i), i)
	}
	if c.Size(ctx) != 3 {
		t.Fatalf("size = %d", c.Size(ctx))
	}
	c.Clear(ctx)
	if c.Size(ctx) != 0 {
		t.Fatalf("size after clear = %d", c.Size(ctx))
	}
	if _, ok := c.Get(ctx, "1"); ok {
		t.Fatal("cleared entry should miss")
	}
}

func TestTTLConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewTTL[int](time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprint(i % 10)
				c.Set(ctx, k, g)
				c.Get(ctx, k)
				if i%50 == 0 {
					c.Size(ctx)
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Size(ctx) != 10 {
		t.Fatalf("size = %d", c.Size(ctx))
	}
}

func TestSetSizesAndClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySet(TTLs{})
	s.Listings.Set(ctx, "a", []byte("[]"))
	s.Listings.Set(ctx, "b", []byte("[]"))
	s.Reference.Set(ctx, "cities", []byte(`["Boston"]`))
	got := s.Sizes(ctx)
	if got["listings"] != 2 || got["reference"] != 1 || got["stats"] != 0 {
		t.Fatalf("sizes = %v", got)
	}
	s.Clear(ctx)
	for name, n := range s.Sizes(ctx) {
		if n != 0 {
			t.Fatalf("%s size after clear = %d", name, n)
		}
	}
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client := redisx.New(addr, "", 0)
	defer client.Close()
	c := NewRedis[[]string](client, fmt.Sprintf("test:%d:", time.Now().UnixNano()), time.Minute, nil)
	defer c.Clear(ctx)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("fresh key should miss")
	}
	c.Set(ctx, "k", []string{})
	if v, ok := c.Get(ctx, "k"); !ok || len(v) != 0 {
		t.Fatalf("cached empty = %v %v", v, ok)
	}
	if c.Size(ctx) != 1 {
		t.Fatalf("size = %d", c.Size(ctx))
	}
	c.Clear(ctx)
	if c.Size(ctx) != 0 {
		t.Fatal("clear should drop the prefix")
	}
}
