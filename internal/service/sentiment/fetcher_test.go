package sentiment

import (
	"context"
	"testing"
	"time"

	icache "QuantPulse/internal/service/cache"
)

func TestFetchNeutralWhenEndpointsUnset(t *testing.T) {
	f := New("", "", time.Second)

	r, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if r.GreedValue != 50 || r.VIXValue != 20 {
		t.Fatalf("expected neutral reading, got %+v", r)
	}
}

func TestFetchUsesCache(t *testing.T) {
	cache := icache.NewTTLCache()
	f := New("", "", time.Second, WithCache(cache), WithTTL(time.Hour))

	first, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Fatalf("expected cached reading, fetched_at %v vs %v", second.FetchedAt, first.FetchedAt)
	}
}

func TestFetchRateLimitedReturnsNeutral(t *testing.T) {
	// a cache that never stores forces a refresh attempt every call
	f := New("", "", time.Second, WithCache(dropCache{}))

	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	// second refresh within the limiter window degrades to neutral
	r, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if r.GreedValue != 50 || r.VIXValue != 20 {
		t.Fatalf("expected neutral fallback, got %+v", r)
	}
}

type dropCache struct{}

func (dropCache) GetBytes(key string) ([]byte, bool, error)                  { return nil, false, nil }
func (dropCache) SetBytes(key string, value []byte, ttl time.Duration) error { return nil }
