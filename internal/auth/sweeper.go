package auth

import (
	"context"
	"time"

	"github.com/reelshelf/backend/internal/logging"
)

// RunSweeper deletes expired sessions every interval until ctx is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.SweepExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.LogError(ctx, "sweep expired sessions", err)
				continue
			}
			if removed > 0 {
				logger.InfoContext(ctx, "swept expired sessions", "removed", removed)
			}
		}
	}
}
