package directory

// scheduler.go provides an optional periodic refresh.
//
// Listing users already refreshes the cache on demand. Deployments whose
// consumers mostly filter (which never refreshes) can also run the
// scheduler so filter results do not go stale. Failures are logged and the
// scheduler keeps running; the previous generation stays in service.

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler refreshes the cache every interval until ctx is
// cancelled. The first run happens one interval after start. A
// non-positive interval returns immediately.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Debug("refresh scheduler disabled")
		return
	}

	slog.Info("refresh scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runScheduledRefresh(ctx)
		}
	}
}

// runScheduledRefresh performs one refresh and logs its outcome.
func (s *Service) runScheduledRefresh(ctx context.Context) {
	start := time.Now()
	res, err := s.Refresh(ctx)
	if err != nil {
		slog.Error("scheduled refresh failed", "error", err)
		return
	}
	slog.Debug("scheduled refresh completed",
		"users", res.Loaded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
