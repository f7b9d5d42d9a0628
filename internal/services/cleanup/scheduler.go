package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs one cleanup pass
type Sweeper interface {
	Sweep(ctx context.Context) (*Result, error)
}

// Scheduler runs a Sweeper on a fixed interval
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. A non-positive interval disables it.
func NewScheduler(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps every interval until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("cleanup scheduler disabled")
		return
	}

	s.logger.Info("cleanup scheduler started", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cleanup scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("cleanup sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
