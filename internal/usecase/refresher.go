package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
)

const defaultRefreshInterval = 5 * time.Minute

// Refresher drives the affiliate snapshot refresh: one run immediately at
// startup, then one per interval. Cycles run on a non-blocking pool of size
// one, so a tick that lands while a cycle is still in flight is skipped
// rather than queued or run concurrently.
type Refresher struct {
	service  *LeaderboardService
	interval time.Duration
	logger   *logging.Logger
}

func NewRefresher(service *LeaderboardService, interval time.Duration, logger *logging.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Refresher{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. Refresh failures are logged and never
// propagated; the cached pair keeps serving until a cycle succeeds.
func (r *Refresher) Run(ctx context.Context) error {
	workers, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return err
	}
	defer workers.Release()

	r.dispatch(ctx, workers)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.dispatch(ctx, workers)
		}
	}
}

func (r *Refresher) dispatch(ctx context.Context, workers *ants.Pool) {
	err := workers.Submit(func() {
		if err := r.service.RefreshAffiliateSnapshots(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			r.logger.ErrorContext(ctx, "affiliate snapshot refresh failed", "error", err)
		}
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			r.logger.WarnContext(ctx, "previous refresh cycle still running, skipping tick")
			return
		}
		r.logger.ErrorContext(ctx, "submit refresh cycle", "error", err)
	}
}
