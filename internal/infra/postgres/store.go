// Package postgres persists the gamification state with bun. The submission
// pipeline runs inside one read-committed transaction; the streak row is
// locked with SELECT ... FOR UPDATE so concurrent same-day submissions
// cannot lose updates.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
)

// Store implements app.Store and app.ReadStore on a bun database handle.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Atomically runs fn inside one transaction. bun rolls back on error.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, &pgTx{tx: tx})
		})
}

type pgTx struct {
	tx bun.Tx
}

var _ app.Tx = (*pgTx)(nil)

func (t *pgTx) Quiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var row quizRow
	err := t.tx.NewSelect().Model(&row).
		Where("q.id = ?", quizID).
		Where("q.status = 'active'").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (t *pgTx) Questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	var rows []questionRow
	err := t.tx.NewSelect().Model(&rows).
		Where("qq.quiz_id = ?", quizID).
		Order("qq.sort_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	questions := make([]domain.Question, len(rows))
	for i, row := range rows {
		questions[i] = row.toDomain()
	}
	return questions, nil
}

func (t *pgTx) CountResults(ctx context.Context, userID, quizID int64) (int, error) {
	count, err := t.tx.NewSelect().Model((*quizResultRow)(nil)).
		Where("qr.user_id = ?", userID).
		Where("qr.quiz_id = ?", quizID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}

func (t *pgTx) InsertResult(ctx context.Context, result *domain.QuizResult) error {
	row := resultRowFromDomain(result)
	if _, err := t.tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	result.ID = row.ID
	return nil
}

func (t *pgTx) InsertLedgerEntry(ctx context.Context, entry *domain.PointLedgerEntry) error {
	row := pointEntryRow{
		UserID:      entry.UserID,
		Points:      entry.Points,
		Source:      string(entry.Source),
		SourceID:    entry.SourceID,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt,
	}
	if _, err := t.tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	entry.ID = row.ID
	return nil
}

func (t *pgTx) StreakForUpdate(ctx context.Context, userID int64, streakType string) (*domain.LearningStreak, error) {
	var row streakRow
	err := t.tx.NewSelect().Model(&row).
		Where("ls.user_id = ?", userID).
		Where("ls.streak_type = ?", streakType).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock streak: %w", err)
	}
	streak := row.toDomain()
	return &streak, nil
}

func (t *pgTx) SaveStreak(ctx context.Context, streak *domain.LearningStreak) error {
	row := streakRow{
		UserID:        streak.UserID,
		StreakType:    streak.StreakType,
		CurrentStreak: streak.Current,
		LongestStreak: streak.Longest,
		LastActivity:  streak.LastActivity,
	}
	_, err := t.tx.NewInsert().Model(&row).
		On("CONFLICT (user_id, streak_type) DO UPDATE").
		Set("current_streak = EXCLUDED.current_streak").
		Set("longest_streak = EXCLUDED.longest_streak").
		Set("last_activity_date = EXCLUDED.last_activity_date").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func (t *pgTx) UserStats(ctx context.Context, userID int64) (domain.UserStats, error) {
	var stats domain.UserStats
	err := t.tx.NewSelect().Model((*quizResultRow)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("coalesce(avg(qr.score), 0)").
		ColumnExpr("count(*) FILTER (WHERE qr.score = 100)").
		Where("qr.user_id = ?", userID).
		Scan(ctx, &stats.QuizCount, &stats.AvgScore, &stats.PerfectScores)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	err = t.tx.NewSelect().Model((*streakRow)(nil)).
		ColumnExpr("coalesce(max(ls.current_streak), 0)").
		Where("ls.user_id = ?", userID).
		Where("ls.streak_type = ?", domain.StreakDaily).
		Scan(ctx, &stats.CurrentStreak)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user streak: %w", err)
	}
	return stats, nil
}

func (t *pgTx) Badges(ctx context.Context) ([]domain.Badge, error) {
	var rows []badgeRow
	if err := t.tx.NewSelect().Model(&rows).Order("b.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}
	badges := make([]domain.Badge, len(rows))
	for i, row := range rows {
		badges[i] = row.toDomain()
	}
	return badges, nil
}

func (t *pgTx) UserBadgeIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	var ids []int64
	err := t.tx.NewSelect().Model((*userBadgeRow)(nil)).
		Column("ub.badge_id").
		Where("ub.user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("load user badges: %w", err)
	}
	owned := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	return owned, nil
}

func (t *pgTx) InsertUserBadge(ctx context.Context, award *domain.UserBadge) error {
	row := userBadgeRow{UserID: award.UserID, BadgeID: award.BadgeID, EarnedAt: award.EarnedAt}
	if _, err := t.tx.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBadgeAlreadyAwarded
		}
		return fmt.Errorf("insert user badge: %w", err)
	}
	return nil
}

// isUniqueViolation matches Postgres error class 23 (integrity constraint
// violation), which on user_badges can only be the unique pair constraint.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.IntegrityViolation()
}
