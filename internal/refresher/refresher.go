package refresher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"barstock/internal/catalog"
)

// Refreshable is satisfied by *catalog.SyncService.
type Refreshable interface {
	Refresh(ctx context.Context) (catalog.RefreshResult, error)
}

// Service refreshes the catalog on a fixed interval. It shares a Gate with
// any other caller so only one ingestion runs at a time.
type Service struct {
	target   Refreshable
	gate     *Gate
	interval time.Duration
}

func NewService(target Refreshable, gate *Gate, interval time.Duration) *Service {
	if gate == nil {
		gate = &Gate{}
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Service{target: target, gate: gate, interval: interval}
}

// Run blocks until ctx is done. With immediate set the first cycle starts at
// once instead of after one interval.
func (s *Service) Run(ctx context.Context, immediate bool) error {
	if !immediate {
		if !s.wait(ctx) {
			return nil
		}
	}
	for {
		s.runCycle(ctx)
		if !s.wait(ctx) {
			return nil
		}
	}
}

func (s *Service) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Service) runCycle(ctx context.Context) {
	_, ran, err := s.gate.Do(ctx, s.target.Refresh)
	if !ran {
		slog.Debug("refresh skipped, another one is running")
		return
	}
	if err != nil && ctx.Err() == nil {
		slog.Warn("scheduled refresh failed", "error", err)
	}
}

// Gate lets one refresh through at a time; callers arriving while one is in
// flight are turned away rather than queued.
type Gate struct {
	mu sync.Mutex
}

// Do reports ran=false without calling fn when a refresh is in flight.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) (catalog.RefreshResult, error)) (res catalog.RefreshResult, ran bool, err error) {
	if !g.mu.TryLock() {
		return catalog.RefreshResult{}, false, nil
	}
	defer g.mu.Unlock()
	res, err = fn(ctx)
	return res, true, err
}
