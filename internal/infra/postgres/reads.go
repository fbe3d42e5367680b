package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"travelpro-gamification/internal/domain"
)

// Read-side queries backing the gamification APIs. These run outside the
// submission transaction and only ever read.

type leaderboardScan struct {
	UserID        int64   `bun:"user_id"`
	Name          string  `bun:"name"`
	TotalPoints   int     `bun:"total_points"`
	BadgeCount    int     `bun:"badge_count"`
	CurrentStreak int     `bun:"current_streak"`
	QuizCount     int     `bun:"quiz_count"`
	AverageScore  float64 `bun:"average_score"`
}

const leaderboardSQL = `
SELECT u.id AS user_id, u.name,
       COALESCE((SELECT SUM(p.points) FROM user_points p WHERE p.user_id = u.id), 0) AS total_points,
       (SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id) AS badge_count,
       COALESCE((SELECT ls.current_streak FROM learning_streaks ls
                 WHERE ls.user_id = u.id AND ls.streak_type = ?), 0) AS current_streak,
       (SELECT COUNT(*) FROM quiz_results qr WHERE qr.user_id = u.id) AS quiz_count,
       COALESCE((SELECT AVG(qr.score) FROM quiz_results qr WHERE qr.user_id = u.id), 0) AS average_score
FROM users u
WHERE u.company_id = ? AND u.status = 'active'
ORDER BY total_points DESC, average_score DESC, u.id ASC
`

func (s *Store) Leaderboard(ctx context.Context, companyID int64) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardScan
	if err := s.db.NewRaw(leaderboardSQL, domain.StreakDaily, companyID).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        row.UserID,
			Name:          row.Name,
			TotalPoints:   row.TotalPoints,
			BadgeCount:    row.BadgeCount,
			CurrentStreak: row.CurrentStreak,
			QuizCount:     row.QuizCount,
			AverageScore:  row.AverageScore,
		}
	}
	return entries, nil
}

type userTotalsScan struct {
	UserID        int64   `bun:"user_id"`
	TotalPoints   int     `bun:"total_points"`
	BadgeCount    int     `bun:"badge_count"`
	CurrentStreak int     `bun:"current_streak"`
	LongestStreak int     `bun:"longest_streak"`
	QuizCount     int     `bun:"quiz_count"`
	PassedQuizzes int     `bun:"passed_quizzes"`
	AverageScore  float64 `bun:"average_score"`
	PerfectScores int     `bun:"perfect_scores"`
}

const userTotalsSQL = `
SELECT u.id AS user_id,
       COALESCE((SELECT SUM(p.points) FROM user_points p WHERE p.user_id = u.id), 0) AS total_points,
       (SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id) AS badge_count,
       COALESCE(ls.current_streak, 0) AS current_streak,
       COALESCE(ls.longest_streak, 0) AS longest_streak,
       (SELECT COUNT(*) FROM quiz_results qr WHERE qr.user_id = u.id) AS quiz_count,
       (SELECT COUNT(*) FROM quiz_results qr WHERE qr.user_id = u.id AND qr.passed) AS passed_quizzes,
       COALESCE((SELECT AVG(qr.score) FROM quiz_results qr WHERE qr.user_id = u.id), 0) AS average_score,
       (SELECT COUNT(*) FROM quiz_results qr WHERE qr.user_id = u.id AND qr.score = 100) AS perfect_scores
FROM users u
LEFT JOIN learning_streaks ls ON ls.user_id = u.id AND ls.streak_type = ?
WHERE u.id = ?
`

func (s *Store) UserTotals(ctx context.Context, userID int64) (domain.UserOverview, error) {
	var row userTotalsScan
	err := s.db.NewRaw(userTotalsSQL, domain.StreakDaily, userID).Scan(ctx, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserOverview{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserOverview{}, fmt.Errorf("user totals: %w", err)
	}
	return domain.UserOverview{
		UserID:        row.UserID,
		TotalPoints:   row.TotalPoints,
		BadgeCount:    row.BadgeCount,
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
		QuizCount:     row.QuizCount,
		PassedQuizzes: row.PassedQuizzes,
		AverageScore:  row.AverageScore,
		PerfectScores: row.PerfectScores,
	}, nil
}

type earnedBadgeScan struct {
	badgeRow
	EarnedAt time.Time `bun:"earned_at"`
}

func (s *Store) UserBadges(ctx context.Context, userID int64) ([]domain.EarnedBadge, error) {
	var rows []earnedBadgeScan
	err := s.db.NewRaw(`
SELECT b.id, b.name, b.description, b.icon, b.criteria, b.points_reward, b.rarity, ub.earned_at
FROM user_badges ub
JOIN badges b ON b.id = ub.badge_id
WHERE ub.user_id = ?
ORDER BY ub.earned_at DESC
`, userID).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("user badges: %w", err)
	}
	earned := make([]domain.EarnedBadge, len(rows))
	for i, row := range rows {
		earned[i] = domain.EarnedBadge{Badge: row.badgeRow.toDomain(), EarnedAt: row.EarnedAt}
	}
	return earned, nil
}

func (s *Store) PointsHistory(ctx context.Context, userID int64, limit int) ([]domain.PointLedgerEntry, error) {
	var rows []pointEntryRow
	err := s.db.NewSelect().Model(&rows).
		Where("up.user_id = ?", userID).
		Order("up.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("points history: %w", err)
	}
	history := make([]domain.PointLedgerEntry, len(rows))
	for i, row := range rows {
		history[i] = row.toDomain()
	}
	return history, nil
}

const userRankSQL = `
SELECT COUNT(*) + 1
FROM (
    SELECT u.id, COALESCE(SUM(p.points), 0) AS total_points
    FROM users u
    LEFT JOIN user_points p ON p.user_id = u.id
    WHERE u.company_id = ? AND u.status = 'active'
    GROUP BY u.id
) ranked
WHERE ranked.total_points > (
    SELECT COALESCE(SUM(p2.points), 0) FROM user_points p2 WHERE p2.user_id = ?
)
`

func (s *Store) UserRank(ctx context.Context, companyID, userID int64) (int, error) {
	var rank int
	if err := s.db.NewRaw(userRankSQL, companyID, userID).Scan(ctx, &rank); err != nil {
		return 0, fmt.Errorf("user rank: %w", err)
	}
	return rank, nil
}

func (s *Store) BadgeCatalog(ctx context.Context) ([]domain.Badge, error) {
	var rows []badgeRow
	err := s.db.NewSelect().Model(&rows).
		Order("b.rarity DESC").
		Order("b.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("badge catalog: %w", err)
	}
	badges := make([]domain.Badge, len(rows))
	for i, row := range rows {
		badges[i] = row.toDomain()
	}
	return badges, nil
}
