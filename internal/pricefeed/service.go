package pricefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"xbin/internal/metrics"
)

const cacheKey = "prices:ticker"

// Cache is the subset of the redis wrapper the service uses.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service serves cached crypto prices and refreshes them on demand. A
// refreshing flag prevents overlapping fetches when the ticker and a manual
// refresh coincide.
type Service struct {
	fetcher  Fetcher
	cache    Cache
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cacheTTL time.Duration

	mu         sync.Mutex
	refreshing bool
	last       []Price
}

// New creates the price feed service.
func New(fetcher Fetcher, cache Cache, metricRegistry *metrics.Metrics, logger *slog.Logger, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		fetcher:  fetcher,
		cache:    cache,
		metrics:  metricRegistry,
		logger:   logger.With("component", "pricefeed"),
		cacheTTL: cacheTTL,
	}
}

// Get returns current prices, serving from cache unless forceRefresh is set
// or the cache is empty.
func (s *Service) Get(ctx context.Context, forceRefresh bool) ([]Price, error) {
	if !forceRefresh {
		if prices, ok := s.cached(ctx); ok {
			return prices, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh fetches fresh prices and repopulates the cache. A concurrent
// refresh serves whatever is cached instead of stacking fetches.
func (s *Service) Refresh(ctx context.Context) ([]Price, error) {
	s.mu.Lock()
	if s.refreshing {
		last := s.last
		s.mu.Unlock()
		if prices, ok := s.cached(ctx); ok {
			return prices, nil
		}
		return last, nil
	}
	s.refreshing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	start := time.Now()
	prices, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.metrics.PriceFetches.WithLabelValues("error").Inc()
		s.metrics.PriceFetchLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.metrics.Errors.WithLabelValues("pricefeed").Inc()
		s.logger.Error("price fetch failed", "error", err)
		// Serve stale data when the upstream is down rather than nothing.
		if cached, ok := s.cached(ctx); ok {
			return cached, nil
		}
		return nil, err
	}
	s.metrics.PriceFetches.WithLabelValues("success").Inc()
	s.metrics.PriceFetchLatency.WithLabelValues("success").Observe(time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, prices, s.cacheTTL); err != nil {
			s.logger.Warn("failed caching prices", "error", err)
		}
	}
	s.mu.Lock()
	s.last = prices
	s.mu.Unlock()
	return prices, nil
}

func (s *Service) cached(ctx context.Context) ([]Price, bool) {
	if s.cache == nil {
		return nil, false
	}
	var prices []Price
	found, err := s.cache.GetJSON(ctx, cacheKey, &prices)
	if err != nil {
		s.logger.Warn("price cache read failed", "error", err)
		return nil, false
	}
	if !found || len(prices) == 0 {
		return nil, false
	}
	return prices, true
}
