package domain

import "time"

// EventType tags a notifiable gamification event.
type EventType string

const (
	EventQuizCompleted EventType = "quiz_completed"
	EventBadgeEarned   EventType = "badge_earned"
)

// Event is what the orchestrator hands to the notifier port after a
// submission commits. Delivery (websocket, email digests, ...) lives outside
// the core.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     int64     `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// QuizCompletedPayload accompanies EventQuizCompleted.
type QuizCompletedPayload struct {
	QuizID             int64   `json:"quizId"`
	QuizTitle          string  `json:"quizTitle"`
	Score              float64 `json:"score"`
	Passed             bool    `json:"passed"`
	GamificationPoints int     `json:"gamificationPoints"`
}

// BadgeEarnedPayload accompanies EventBadgeEarned.
type BadgeEarnedPayload struct {
	BadgeID      int64  `json:"badgeId"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	Rarity       string `json:"rarity"`
	PointsReward int    `json:"pointsReward"`
}
