// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TrialExpirer deactivates trials that ended before now.
type TrialExpirer interface {
	ExpireTrials(ctx context.Context, now time.Time) (int, error)
}

// TrialSweeper periodically expires lapsed trials.
type TrialSweeper struct {
	expirer  TrialExpirer
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewTrialSweeper creates a sweeper that runs every interval.
func NewTrialSweeper(expirer TrialExpirer, interval time.Duration, logger *zap.Logger) *TrialSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrialSweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger.Named("trial_sweeper"),
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is canceled.
// Sweep failures are logged and retried on the next tick.
func (s *TrialSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TrialSweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireTrials(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("expire trials", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.logger.Info("expired trials", zap.Int("count", n))
	}
}
