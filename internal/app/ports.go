package app

import (
	"context"

	"travelpro-gamification/internal/domain"
)

// Store opens the atomic unit of work the submission pipeline runs in.
// Every step sees the same transaction; a returned error rolls the whole
// unit back.
type Store interface {
	Atomically(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transaction-scoped persistence surface of the submission
// pipeline.
type Tx interface {
	// Quiz resolves active quiz metadata or domain.ErrQuizNotFound.
	Quiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	// Questions returns the quiz questions sorted by sort_order ascending.
	Questions(ctx context.Context, quizID int64) ([]domain.Question, error)
	// CountResults reports the user's prior attempts at a quiz.
	CountResults(ctx context.Context, userID, quizID int64) (int, error)
	// InsertResult appends a result row and fills in its generated ID.
	InsertResult(ctx context.Context, result *domain.QuizResult) error
	// InsertLedgerEntry appends to the point ledger and fills in the ID.
	InsertLedgerEntry(ctx context.Context, entry *domain.PointLedgerEntry) error
	// StreakForUpdate loads and row-locks the user's streak for the rest of
	// the transaction. Returns (nil, nil) when no row exists yet.
	StreakForUpdate(ctx context.Context, userID int64, streakType string) (*domain.LearningStreak, error)
	// SaveStreak inserts or updates the (user, streak_type) row.
	SaveStreak(ctx context.Context, streak *domain.LearningStreak) error
	// UserStats computes the badge-evaluation aggregates fresh from
	// quiz_results and learning_streaks.
	UserStats(ctx context.Context, userID int64) (domain.UserStats, error)
	// Badges enumerates the badge catalog.
	Badges(ctx context.Context) ([]domain.Badge, error)
	// UserBadgeIDs returns the ids of badges the user already holds.
	UserBadgeIDs(ctx context.Context, userID int64) (map[int64]struct{}, error)
	// InsertUserBadge awards a badge once. A duplicate (user, badge) pair
	// yields domain.ErrBadgeAlreadyAwarded, which callers treat as benign.
	InsertUserBadge(ctx context.Context, award *domain.UserBadge) error
}

// ReadStore serves the gamification read APIs outside any transaction.
type ReadStore interface {
	Leaderboard(ctx context.Context, companyID int64) ([]domain.LeaderboardEntry, error)
	UserTotals(ctx context.Context, userID int64) (domain.UserOverview, error)
	UserBadges(ctx context.Context, userID int64) ([]domain.EarnedBadge, error)
	PointsHistory(ctx context.Context, userID int64, limit int) ([]domain.PointLedgerEntry, error)
	UserRank(ctx context.Context, companyID, userID int64) (int, error)
	BadgeCatalog(ctx context.Context) ([]domain.Badge, error)
}

// QuizCatalog loads quiz content for delivery to quiz takers.
type QuizCatalog interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizListing, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, []domain.Question, error)
}

// Notifier receives events the orchestrator emits after a submission
// commits. Implementations deliver them to whatever cares (websocket
// streams, digests); the core never depends on delivery succeeding.
type Notifier interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Subscriber is the consuming side of the notifier port. The returned cancel
// function must be called to release the subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, userID int64) (<-chan domain.Event, func(), error)
}
