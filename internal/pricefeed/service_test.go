package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"xbin/internal/metrics"
)

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetServesCacheWithoutFetch(t *testing.T) {
	cache := newFakeCache()
	cached := []Price{{Symbol: "BTC", USD: 100}}
	if err := cache.SetJSON(context.Background(), cacheKey, cached, 0); err != nil {
		t.Fatal(err)
	}

	fetches := 0
	fetcher := FetcherFunc(func(context.Context) ([]Price, error) {
		fetches++
		return []Price{{Symbol: "BTC", USD: 200}}, nil
	})
	svc := New(fetcher, cache, metrics.Registry("test"), testLogger(), time.Minute)

	prices, err := svc.Get(context.Background(), false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetches != 0 {
		t.Fatalf("cache hit must not fetch, fetched %d times", fetches)
	}
	if prices[0].USD != 100 {
		t.Fatalf("expected cached price, got %v", prices[0].USD)
	}
}

func TestGetForceRefreshFetches(t *testing.T) {
	cache := newFakeCache()
	if err := cache.SetJSON(context.Background(), cacheKey, []Price{{Symbol: "BTC", USD: 100}}, 0); err != nil {
		t.Fatal(err)
	}

	fetcher := FetcherFunc(func(context.Context) ([]Price, error) {
		return []Price{{Symbol: "BTC", USD: 200}}, nil
	})
	svc := New(fetcher, cache, metrics.Registry("test"), testLogger(), time.Minute)

	prices, err := svc.Get(context.Background(), true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prices[0].USD != 200 {
		t.Fatalf("expected fresh price, got %v", prices[0].USD)
	}

	// The refresh must have repopulated the cache.
	var cachedNow []Price
	found, err := cache.GetJSON(context.Background(), cacheKey, &cachedNow)
	if err != nil || !found {
		t.Fatalf("cache read: found=%v err=%v", found, err)
	}
	if cachedNow[0].USD != 200 {
		t.Fatalf("cache not updated, got %v", cachedNow[0].USD)
	}
}

func TestRefreshServesStaleOnError(t *testing.T) {
	cache := newFakeCache()
	stale := []Price{{Symbol: "BTC", USD: 100}}
	if err := cache.SetJSON(context.Background(), cacheKey, stale, 0); err != nil {
		t.Fatal(err)
	}

	fetcher := FetcherFunc(func(context.Context) ([]Price, error) {
		return nil, errors.New("upstream down")
	})
	svc := New(fetcher, cache, metrics.Registry("test"), testLogger(), time.Minute)

	prices, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if len(prices) != 1 || prices[0].USD != 100 {
		t.Fatalf("expected stale prices, got %+v", prices)
	}
}

func TestRefreshErrorsWithEmptyCache(t *testing.T) {
	fetcher := FetcherFunc(func(context.Context) ([]Price, error) {
		return nil, errors.New("upstream down")
	})
	svc := New(fetcher, newFakeCache(), metrics.Registry("test"), testLogger(), time.Minute)

	if _, err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected error when no cached data exists")
	}
}

func TestServiceWorksWithoutCache(t *testing.T) {
	fetcher := FetcherFunc(func(context.Context) ([]Price, error) {
		return []Price{{Symbol: "BTC", USD: 300}}, nil
	})
	svc := New(fetcher, nil, metrics.Registry("test"), testLogger(), time.Minute)

	prices, err := svc.Get(context.Background(), false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prices[0].USD != 300 {
		t.Fatalf("expected fetched price, got %v", prices[0].USD)
	}
}
