package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/botmarket/server/internal/model"
)

// Scheduler runs a reconciliation pass over every pending order at a fixed interval.
// Passes run on a single goroutine and never overlap.
type Scheduler struct {
	mu sync.RWMutex

	domain   ReconcileDomain
	interval time.Duration
	logger   *zap.Logger

	last *model.ReconcileSummary
}

// NewScheduler creates a new scheduler. A non-positive interval disables it.
func NewScheduler(domain ReconcileDomain, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		domain:   domain,
		interval: interval,
		logger:   logger,
	}
}

// Enabled reports whether Run will schedule passes.
func (s *Scheduler) Enabled() bool {
	return s.interval > 0
}

// Run blocks until ctx is done, running a pass on every tick.
// It returns nil when disabled or stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.Info("periodic reconciliation disabled")
		return nil
	}

	s.logger.Info("periodic reconciliation started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("periodic reconciliation stopped")
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single pass over every pending order.
func (s *Scheduler) RunOnce(ctx context.Context) *model.ReconcileSummary {
	summary, err := s.domain.Reconcile(ctx, &model.ReconcileRequest{})
	if err != nil {
		s.logger.Error("scheduled reconciliation failed", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.last = summary
	s.mu.Unlock()
	return summary
}

// LastSummary returns the summary of the most recent successful scheduled pass.
func (s *Scheduler) LastSummary() *model.ReconcileSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
