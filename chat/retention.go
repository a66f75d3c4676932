package chat

import (
	"context"
	"time"

	"github.com/Dzamal6/AMS-API/core"
)

// StartRetentionSweep purges durable sessions older than the retention
// window on the given interval until ctx is cancelled. It runs one sweep
// immediately and then ticks.
func (s *Service) StartRetentionSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			s.sweepOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Service) sweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-core.SessionRetention)
	n, err := s.repo.PurgeExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("retention sweep", "purged", n, "cutoff", cutoff)
	}
}
