package store

import (
	"context"
	"pastelite/metrics"
	"pastelite/pkg/clock"
	"pastelite/svc/util"
	"time"

	"github.com/pkg/errors"
)

// StartSweeper runs Sweep every interval until ctx is cancelled. It blocks,
// so callers run it in its own goroutine.
func StartSweeper(ctx context.Context, s *Store, c clock.Clock, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	sweepID := util.NewRequestID()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	util.Info().
		Str("request_id", sweepID).
		Dur("interval", interval).
		Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			util.Info().
				Str("request_id", sweepID).
				Msg("sweeper shutting down")
			return nil
		case <-ticker.C:
			removed := s.Sweep(c.Now())
			metrics.SweepCycles.Inc()
			if removed > 0 {
				util.Debug().
					Int("removed", removed).
					Int("remaining", s.Len()).
					Str("request_id", sweepID).
					Msg("sweep completed")
			}
		}
	}
}
