package pricefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher drives periodic price refreshes on a fixed interval.
type Refresher struct {
	service  *Service
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRefresher creates a lifecycle-managed refresher.
func NewRefresher(service *Service, logger *slog.Logger, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{
		service:  service,
		logger:   logger.With("component", "pricefeed_refresher"),
		interval: interval,
	}
}

// Start begins the refresh loop; it performs one refresh immediately so the
// cache is warm before the first tick.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.tick(runCtx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.tick(runCtx)
			}
		}
	}()

	r.logger.Info("price refresher started", "interval", r.interval.String())
}

// Stop halts the loop and waits for the in-flight refresh to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.logger.Info("price refresher stopped")
	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := r.service.Refresh(tickCtx); err != nil {
		r.logger.Warn("scheduled price refresh failed", "error", err)
	}
}
