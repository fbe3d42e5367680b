package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"travelpro-gamification/internal/domain"
)

const pointsHistoryLimit = 10

// StatsService serves the gamification read APIs: leaderboards, per-user
// overviews and the badge catalog.
type StatsService struct {
	reads ReadStore
}

func NewStatsService(reads ReadStore) *StatsService {
	return &StatsService{reads: reads}
}

// Leaderboard ranks a company's users by total ledger points, average score
// breaking ties.
func (s *StatsService) Leaderboard(ctx context.Context, companyID int64) ([]domain.LeaderboardEntry, error) {
	return s.reads.Leaderboard(ctx, companyID)
}

// Badges lists the full badge catalog.
func (s *StatsService) Badges(ctx context.Context) ([]domain.Badge, error) {
	return s.reads.BadgeCatalog(ctx)
}

// UserOverview assembles aggregate totals, earned badges, recent ledger
// history and company rank for one user. The three decorations are
// independent reads and fetched concurrently.
func (s *StatsService) UserOverview(ctx context.Context, companyID, userID int64) (domain.UserOverview, error) {
	overview, err := s.reads.UserTotals(ctx, userID)
	if err != nil {
		return domain.UserOverview{}, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		badges, err := s.reads.UserBadges(ctx, userID)
		if err == nil {
			overview.Badges = badges
		}
		return err
	})
	g.Go(func() error {
		history, err := s.reads.PointsHistory(ctx, userID, pointsHistoryLimit)
		if err == nil {
			overview.PointsHistory = history
		}
		return err
	})
	g.Go(func() error {
		rank, err := s.reads.UserRank(ctx, companyID, userID)
		if err == nil {
			overview.Rank = rank
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.UserOverview{}, err
	}
	return overview, nil
}
