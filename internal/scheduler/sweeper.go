package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sparrow/internal/metrics"
	"sparrow/internal/repository"
)

// Sweeper periodically transitions overdue pending opportunities to expired.
// Expiry is also enforced at read time by the pending listing filter; the
// sweep keeps stored state converging on the same answer.
type Sweeper struct {
	opportunities repository.OpportunityRepo
	interval      time.Duration
	metrics       *metrics.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

func NewSweeper(opportunities repository.OpportunityRepo, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		opportunities: opportunities,
		interval:      interval,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Run sweeps on the configured interval until ctx is done. An individual
// sweep failure is logged and the loop continues.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Warn("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of opportunities
// expired.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.opportunities.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired stale opportunities", zap.Int64("count", n))
		if s.metrics != nil {
			s.metrics.OpportunitiesExpired.Add(float64(n))
		}
	}
	return n, nil
}
