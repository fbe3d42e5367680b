package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewStreak(t *testing.T) {
	s := app.NewStreak(7, domain.StreakDaily, day("2026-03-10").Add(14*time.Hour))

	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
	assert.Equal(t, day("2026-03-10"), s.LastActivity)
}

func TestTouchStreak(t *testing.T) {
	tests := []struct {
		name        string
		before      domain.LearningStreak
		today       time.Time
		wantChanged bool
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "same day is a no-op",
			before:      domain.LearningStreak{Current: 3, Longest: 5, LastActivity: day("2026-03-10")},
			today:       day("2026-03-10").Add(23 * time.Hour),
			wantChanged: false,
			wantCurrent: 3,
			wantLongest: 5,
		},
		{
			name:        "next day extends",
			before:      domain.LearningStreak{Current: 3, Longest: 5, LastActivity: day("2026-03-10")},
			today:       day("2026-03-11"),
			wantChanged: true,
			wantCurrent: 4,
			wantLongest: 5,
		},
		{
			name:        "extension can set a new longest",
			before:      domain.LearningStreak{Current: 5, Longest: 5, LastActivity: day("2026-03-10")},
			today:       day("2026-03-11"),
			wantChanged: true,
			wantCurrent: 6,
			wantLongest: 6,
		},
		{
			name:        "two day gap resets",
			before:      domain.LearningStreak{Current: 9, Longest: 9, LastActivity: day("2026-03-10")},
			today:       day("2026-03-12"),
			wantChanged: true,
			wantCurrent: 1,
			wantLongest: 9,
		},
		{
			name:        "long absence resets but keeps longest",
			before:      domain.LearningStreak{Current: 14, Longest: 21, LastActivity: day("2026-01-01")},
			today:       day("2026-03-12"),
			wantChanged: true,
			wantCurrent: 1,
			wantLongest: 21,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.before
			changed := app.TouchStreak(&s, tt.today)

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantCurrent, s.Current)
			assert.Equal(t, tt.wantLongest, s.Longest)
			if changed {
				assert.Equal(t, app.DateOnly(tt.today), s.LastActivity)
			}
		})
	}
}

func TestDateOnlyNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2026-03-11 03:00 in Tokyo is still 2026-03-10 in UTC.
	local := time.Date(2026, 3, 11, 3, 0, 0, 0, loc)

	assert.Equal(t, day("2026-03-10"), app.DateOnly(local))
}
