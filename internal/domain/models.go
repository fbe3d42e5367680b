package domain

import (
	"encoding/json"
	"time"
)

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionScenario       QuestionType = "scenario"
)

// Quiz is the admin-curated quiz metadata. Questions are loaded separately,
// ordered by sort_order.
type Quiz struct {
	ID            int64  `json:"id"`
	DestinationID *int64 `json:"destinationId,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	PassingScore  int    `json:"passingScore"`
	TimeLimit     int    `json:"timeLimit"` // seconds
	Status        string `json:"status,omitempty"`
}

// Question carries the stored option list and correct answer as raw JSON.
// CorrectAnswer is decoded only at grading time and must never reach quiz
// takers.
type Question struct {
	ID            int64           `json:"id"`
	QuizID        int64           `json:"quizId"`
	Text          string          `json:"text"`
	Type          QuestionType    `json:"type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer json.RawMessage `json:"-"`
	Explanation   string          `json:"explanation,omitempty"`
	Points        int             `json:"points"`
	SortOrder     int             `json:"sortOrder"`
}

// QuizResult is one graded attempt. Rows are written once and never mutated;
// a user may hold any number of results per quiz.
type QuizResult struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	QuizID        int64           `json:"quizId"`
	Score         float64         `json:"score"`
	PointsEarned  int             `json:"pointsEarned"`
	TimeSpent     int             `json:"timeSpent"` // seconds
	Answers       json.RawMessage `json:"answers"`
	Passed        bool            `json:"passed"`
	AttemptNumber int             `json:"attemptNumber"`
	CompletedAt   time.Time       `json:"completedAt"`
}

// PointSource identifies why a ledger entry was granted.
type PointSource string

const (
	SourceQuizCompletion      PointSource = "quiz_completion"
	SourcePerfectScore        PointSource = "perfect_score"
	SourceHighScore           PointSource = "high_score"
	SourceBadgeEarned         PointSource = "badge_earned"
	SourceStreakBonus         PointSource = "streak_bonus"
	SourceContentContribution PointSource = "content_contribution"
	SourceDailyLogin          PointSource = "daily_login"
)

// PointLedgerEntry is an immutable point grant. A user's total score is the
// sum of their entries; nothing updates or deletes a row once written.
type PointLedgerEntry struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"userId"`
	Points      int         `json:"points"`
	Source      PointSource `json:"source"`
	SourceID    *int64      `json:"sourceId,omitempty"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// StreakDaily is the only streak type the submission pipeline touches.
const StreakDaily = "daily"

// LearningStreak is the per-(user, type) consecutive-day counter.
// LastActivity is a calendar date, normalized to midnight UTC.
// Invariant: Longest >= Current at all times.
type LearningStreak struct {
	UserID       int64     `json:"userId"`
	StreakType   string    `json:"streakType"`
	Current      int       `json:"currentStreak"`
	Longest      int       `json:"longestStreak"`
	LastActivity time.Time `json:"lastActivityDate"`
}

// Badge is a row of the admin-managed achievement catalog. Criteria is
// descriptive metadata; eligibility is decided by the evaluator's rule set
// keyed on Name.
type Badge struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	Criteria     json.RawMessage `json:"criteria,omitempty"`
	PointsReward int             `json:"pointsReward"`
	Rarity       string          `json:"rarity"`
}

// UserBadge marks a one-time award; (UserID, BadgeID) is unique.
type UserBadge struct {
	UserID   int64     `json:"userId"`
	BadgeID  int64     `json:"badgeId"`
	EarnedAt time.Time `json:"earnedAt"`
}

// UserStats are the aggregates the badge evaluator reads, computed fresh from
// quiz_results and learning_streaks on every evaluation.
type UserStats struct {
	QuizCount     int     `json:"quizCount"`
	AvgScore      float64 `json:"averageScore"`
	PerfectScores int     `json:"perfectScores"`
	CurrentStreak int     `json:"currentStreak"`
}

// SubmissionSummary is the caller-facing outcome of one graded submission.
// GamificationPoints covers the completion bonus only; badge rewards surface
// through the ledger and the badge_earned events.
type SubmissionSummary struct {
	ResultID           int64   `json:"id"`
	Score              float64 `json:"score"`
	Passed             bool    `json:"passed"`
	PointsEarned       int     `json:"pointsEarned"`
	GamificationPoints int     `json:"gamificationPoints"`
	CorrectAnswers     int     `json:"correctAnswers"`
	TotalQuestions     int     `json:"totalQuestions"`
}

// LeaderboardEntry is one ranked row of a company leaderboard.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        int64   `json:"userId"`
	Name          string  `json:"name"`
	TotalPoints   int     `json:"totalPoints"`
	BadgeCount    int     `json:"badgeCount"`
	CurrentStreak int     `json:"currentStreak"`
	QuizCount     int     `json:"quizCount"`
	AverageScore  float64 `json:"averageScore"`
}

// EarnedBadge is a catalog badge together with when the user earned it.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `json:"earnedAt"`
}

// UserOverview is the per-user stats view: aggregate totals plus the user's
// badges, recent ledger history and company rank.
type UserOverview struct {
	UserID        int64              `json:"userId"`
	TotalPoints   int                `json:"totalPoints"`
	BadgeCount    int                `json:"badgeCount"`
	CurrentStreak int                `json:"currentStreak"`
	LongestStreak int                `json:"longestStreak"`
	QuizCount     int                `json:"quizCount"`
	PassedQuizzes int                `json:"passedQuizzes"`
	AverageScore  float64            `json:"averageScore"`
	PerfectScores int                `json:"perfectScores"`
	Rank          int                `json:"rank"`
	Badges        []EarnedBadge      `json:"badges"`
	PointsHistory []PointLedgerEntry `json:"pointsHistory"`
}

// QuizListing is a catalog row with attempt aggregates for the quiz index.
type QuizListing struct {
	Quiz
	QuestionCount int     `json:"questionCount"`
	AttemptCount  int     `json:"attemptCount"`
	AverageScore  float64 `json:"averageScore"`
}
