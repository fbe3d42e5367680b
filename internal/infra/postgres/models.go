package postgres

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"travelpro-gamification/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID            int64  `bun:"id,pk,autoincrement"`
	DestinationID *int64 `bun:"destination_id"`
	Title         string `bun:"title,notnull"`
	Description   string `bun:"description"`
	Difficulty    string `bun:"difficulty"`
	PassingScore  int    `bun:"passing_score"`
	TimeLimit     int    `bun:"time_limit"`
	Status        string `bun:"status"`
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:            r.ID,
		DestinationID: r.DestinationID,
		Title:         r.Title,
		Description:   r.Description,
		Difficulty:    r.Difficulty,
		PassingScore:  r.PassingScore,
		TimeLimit:     r.TimeLimit,
		Status:        r.Status,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq"`

	ID            int64           `bun:"id,pk,autoincrement"`
	QuizID        int64           `bun:"quiz_id,notnull"`
	QuestionText  string          `bun:"question_text,notnull"`
	QuestionType  string          `bun:"question_type"`
	Options       json.RawMessage `bun:"options,type:jsonb"`
	CorrectAnswer json.RawMessage `bun:"correct_answer,type:jsonb"`
	Explanation   string          `bun:"explanation"`
	Points        int             `bun:"points"`
	SortOrder     int             `bun:"sort_order"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		QuizID:        r.QuizID,
		Text:          r.QuestionText,
		Type:          domain.QuestionType(r.QuestionType),
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Points:        r.Points,
		SortOrder:     r.SortOrder,
	}
}

type quizResultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	ID            int64           `bun:"id,pk,autoincrement"`
	UserID        int64           `bun:"user_id,notnull"`
	QuizID        int64           `bun:"quiz_id,notnull"`
	Score         float64         `bun:"score,notnull"`
	PointsEarned  int             `bun:"points_earned"`
	TimeSpent     int             `bun:"time_spent,notnull"`
	Answers       json.RawMessage `bun:"answers,type:jsonb"`
	Passed        bool            `bun:"passed"`
	AttemptNumber int             `bun:"attempt_number"`
	CompletedAt   time.Time       `bun:"completed_at,nullzero,default:current_timestamp"`
}

func resultRowFromDomain(r *domain.QuizResult) quizResultRow {
	return quizResultRow{
		ID:            r.ID,
		UserID:        r.UserID,
		QuizID:        r.QuizID,
		Score:         r.Score,
		PointsEarned:  r.PointsEarned,
		TimeSpent:     r.TimeSpent,
		Answers:       r.Answers,
		Passed:        r.Passed,
		AttemptNumber: r.AttemptNumber,
		CompletedAt:   r.CompletedAt,
	}
}

type pointEntryRow struct {
	bun.BaseModel `bun:"table:user_points,alias:up"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	Points      int       `bun:"points,notnull"`
	Source      string    `bun:"source,notnull"`
	SourceID    *int64    `bun:"source_id"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func (r pointEntryRow) toDomain() domain.PointLedgerEntry {
	return domain.PointLedgerEntry{
		ID:          r.ID,
		UserID:      r.UserID,
		Points:      r.Points,
		Source:      domain.PointSource(r.Source),
		SourceID:    r.SourceID,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

type streakRow struct {
	bun.BaseModel `bun:"table:learning_streaks,alias:ls"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	StreakType    string    `bun:"streak_type,notnull"`
	CurrentStreak int       `bun:"current_streak"`
	LongestStreak int       `bun:"longest_streak"`
	LastActivity  time.Time `bun:"last_activity_date,type:date"`
}

func (r streakRow) toDomain() domain.LearningStreak {
	return domain.LearningStreak{
		UserID:       r.UserID,
		StreakType:   r.StreakType,
		Current:      r.CurrentStreak,
		Longest:      r.LongestStreak,
		LastActivity: r.LastActivity,
	}
}

type badgeRow struct {
	bun.BaseModel `bun:"table:badges,alias:b"`

	ID           int64           `bun:"id,pk,autoincrement"`
	Name         string          `bun:"name,notnull"`
	Description  string          `bun:"description"`
	Icon         string          `bun:"icon"`
	Criteria     json.RawMessage `bun:"criteria,type:jsonb"`
	PointsReward int             `bun:"points_reward"`
	Rarity       string          `bun:"rarity"`
}

func (r badgeRow) toDomain() domain.Badge {
	return domain.Badge{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Icon:         r.Icon,
		Criteria:     r.Criteria,
		PointsReward: r.PointsReward,
		Rarity:       r.Rarity,
	}
}

type userBadgeRow struct {
	bun.BaseModel `bun:"table:user_badges,alias:ub"`

	ID       int64     `bun:"id,pk,autoincrement"`
	UserID   int64     `bun:"user_id,notnull"`
	BadgeID  int64     `bun:"badge_id,notnull"`
	EarnedAt time.Time `bun:"earned_at,nullzero,default:current_timestamp"`
}
