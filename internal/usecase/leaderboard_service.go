package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
	"github.com/tygolabs/leaderboard-api/internal/domain/period"
	"github.com/tygolabs/leaderboard-api/internal/platform/cache"
	"github.com/tygolabs/leaderboard-api/internal/platform/logging"
)

// RankedQuery carries the query options of the ranked-leaderboard upstream.
// Zero values mean "use the upstream defaults" (wager/desc/10/0).
type RankedQuery struct {
	RankBy    string
	SortOrder string
	Search    string
	Take      int
	Skip      int
}

// RankedClient fetches and normalizes a ranked wagering leaderboard for an
// arbitrary time range.
type RankedClient interface {
	FetchLeaderboard(ctx context.Context, fromMillis, toMillis int64, query RankedQuery) ([]leaderboard.Entry, error)
}

// AffiliateExportClient fetches the normalized top affiliates for one
// calendar month.
type AffiliateExportClient interface {
	FetchMonth(ctx context.Context, year int, month time.Month) ([]leaderboard.Entry, error)
}

// TabularClient fetches and parses the spreadsheet-backed leaderboard.
type TabularClient interface {
	FetchLeaderboard(ctx context.Context) ([]leaderboard.Entry, error)
}

// LeaderboardService glues the three upstream sources to the HTTP surface:
// ranked fetches run live per request, the affiliate export is served from
// the background-refreshed snapshot pair, and the tabular source is fetched
// live as well.
type LeaderboardService struct {
	ranked    RankedClient
	affiliate AffiliateExportClient
	tabular   TabularClient
	snapshots *cache.Snapshots
	logger    *logging.Logger
	now       func() time.Time
}

func NewLeaderboardService(
	ranked RankedClient,
	affiliate AffiliateExportClient,
	tabular TabularClient,
	snapshots *cache.Snapshots,
	logger *logging.Logger,
) *LeaderboardService {
	if snapshots == nil {
		snapshots = cache.NewSnapshots()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &LeaderboardService{
		ranked:    ranked,
		affiliate: affiliate,
		tabular:   tabular,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
	}
}

// RankedCurrentMonth fetches the ranked leaderboard for the running UTC month.
func (s *LeaderboardService) RankedCurrentMonth(ctx context.Context) ([]leaderboard.Entry, error) {
	periods := period.Monthly(s.now())
	return s.ranked.FetchLeaderboard(ctx, periods.Current.FromMillis(), periods.Current.ToMillis(), RankedQuery{})
}

// RankedPreviousMonth fetches the ranked leaderboard for the prior UTC month.
func (s *LeaderboardService) RankedPreviousMonth(ctx context.Context) ([]leaderboard.Entry, error) {
	periods := period.Monthly(s.now())
	return s.ranked.FetchLeaderboard(ctx, periods.Previous.FromMillis(), periods.Previous.ToMillis(), RankedQuery{})
}

// RankedCustom fetches the ranked leaderboard for a caller-supplied range and
// options. The range must be ordered.
func (s *LeaderboardService) RankedCustom(ctx context.Context, fromMillis, toMillis int64, query RankedQuery) ([]leaderboard.Entry, error) {
	if toMillis < fromMillis {
		return nil, fmt.Errorf("%w: range end precedes range start", ErrInvalidInput)
	}
	return s.ranked.FetchLeaderboard(ctx, fromMillis, toMillis, query)
}

// AffiliateCurrent returns the cached current-month affiliate leaderboard.
// It never fails; before the first successful refresh it is empty.
func (s *LeaderboardService) AffiliateCurrent(ctx context.Context) []leaderboard.Entry {
	return s.snapshots.Current(ctx)
}

// AffiliatePrevious returns the cached previous-month affiliate leaderboard.
func (s *LeaderboardService) AffiliatePrevious(ctx context.Context) []leaderboard.Entry {
	return s.snapshots.Previous(ctx)
}

// TabularLeaderboard fetches the spreadsheet leaderboard live; no caching.
func (s *LeaderboardService) TabularLeaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	return s.tabular.FetchLeaderboard(ctx)
}

// RefreshAffiliateSnapshots fetches the current and previous month from the
// affiliate export concurrently and commits both slots as one pair. If either
// fetch fails the cycle is abandoned and the prior pair keeps serving.
func (s *LeaderboardService) RefreshAffiliateSnapshots(ctx context.Context) error {
	now := s.now().UTC()
	currentStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	previousStart := currentStart.AddDate(0, -1, 0)

	var current, previous []leaderboard.Entry
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		entries, err := s.affiliate.FetchMonth(ctx, currentStart.Year(), currentStart.Month())
		if err != nil {
			return fmt.Errorf("fetch current month: %w", err)
		}
		current = entries
		return nil
	})
	p.Go(func(ctx context.Context) error {
		entries, err := s.affiliate.FetchMonth(ctx, previousStart.Year(), previousStart.Month())
		if err != nil {
			return fmt.Errorf("fetch previous month: %w", err)
		}
		previous = entries
		return nil
	})
	if err := p.Wait(); err != nil {
		return err
	}

	s.snapshots.ReplaceBoth(ctx, current, previous)
	s.logger.InfoContext(ctx, "affiliate snapshots refreshed",
		"current_entries", len(current),
		"previous_entries", len(previous),
	)
	return nil
}
