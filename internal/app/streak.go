package app

import (
	"time"

	"travelpro-gamification/internal/domain"
)

// DateOnly normalizes a timestamp to its calendar date at midnight UTC.
// Streak arithmetic works on whole days only.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewStreak seeds the row for a user's first qualifying activity.
func NewStreak(userID int64, streakType string, today time.Time) domain.LearningStreak {
	return domain.LearningStreak{
		UserID:       userID,
		StreakType:   streakType,
		Current:      1,
		Longest:      1,
		LastActivity: DateOnly(today),
	}
}

// TouchStreak advances the daily streak state machine in place and reports
// whether the row changed:
//
//   - same calendar day: no-op, repeated submissions never inflate the streak
//   - exactly one day later: current += 1, longest tracks the maximum
//   - any larger gap: current resets to 1, longest is preserved
//
// Longest is monotonically non-decreasing.
func TouchStreak(s *domain.LearningStreak, today time.Time) bool {
	day := DateOnly(today)
	gap := daysBetween(DateOnly(s.LastActivity), day)

	switch {
	case gap == 0:
		return false
	case gap == 1:
		s.Current++
	default:
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivity = day
	return true
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
