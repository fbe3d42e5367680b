package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
)

// Seed installs the default badge catalog and one sample quiz. Safe to run
// repeatedly: existing rows are left alone.
func Seed(ctx context.Context, db *bun.DB) error {
	if err := seedBadges(ctx, db); err != nil {
		return err
	}
	return seedSampleQuiz(ctx, db)
}

func seedBadges(ctx context.Context, db *bun.DB) error {
	badges := []badgeRow{
		{
			Name:         "First Steps",
			Description:  "Complete your first quiz",
			Icon:         "🎯",
			Criteria:     json.RawMessage(`{"quiz_count": 1}`),
			PointsReward: 50,
			Rarity:       "common",
		},
		{
			Name:         "Perfectionist",
			Description:  "Score 100% on any quiz",
			Icon:         "⭐",
			Criteria:     json.RawMessage(`{"perfect_score": true}`),
			PointsReward: 100,
			Rarity:       "rare",
		},
		{
			Name:         "Quiz Master",
			Description:  "Complete 5 quizzes",
			Icon:         "🎓",
			Criteria:     json.RawMessage(`{"quiz_count": 5}`),
			PointsReward: 200,
			Rarity:       "epic",
		},
		{
			Name:         "High Performer",
			Description:  "Maintain 85%+ average score",
			Icon:         "🏆",
			Criteria:     json.RawMessage(`{"average_score": 85}`),
			PointsReward: 150,
			Rarity:       "rare",
		},
		{
			Name:         "Knowledge Seeker",
			Description:  "View 10 destination details",
			Icon:         "🌍",
			Criteria:     json.RawMessage(`{"destinations_viewed": 10}`),
			PointsReward: 75,
			Rarity:       "common",
		},
		{
			Name:         "Streak Warrior",
			Description:  "Maintain 7-day learning streak",
			Icon:         "🔥",
			Criteria:     json.RawMessage(`{"streak_days": 7}`),
			PointsReward: 300,
			Rarity:       "legendary",
		},
	}
	_, err := db.NewInsert().Model(&badges).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	return nil
}

func seedSampleQuiz(ctx context.Context, db *bun.DB) error {
	exists, err := db.NewSelect().Model((*quizRow)(nil)).
		Where("title = ?", "Japan Travel Essentials").
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("check sample quiz: %w", err)
	}
	if exists {
		return nil
	}

	quiz := quizRow{
		Title:        "Japan Travel Essentials",
		Description:  "Core knowledge for selling trips to Japan",
		Difficulty:   "beginner",
		PassingScore: 70,
		TimeLimit:    600,
		Status:       "active",
	}
	if _, err := db.NewInsert().Model(&quiz).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("seed sample quiz: %w", err)
	}

	questions := []questionRow{
		{
			QuizID:        quiz.ID,
			QuestionText:  "What is the currency of Japan?",
			QuestionType:  "multiple_choice",
			Options:       json.RawMessage(`["Yen","Won","Yuan","Ringgit"]`),
			CorrectAnswer: json.RawMessage(`0`),
			Points:        1,
			SortOrder:     1,
		},
		{
			QuizID:        quiz.ID,
			QuestionText:  "Japan Rail Passes must be purchased before arrival.",
			QuestionType:  "true_false",
			Options:       json.RawMessage(`["True","False"]`),
			CorrectAnswer: json.RawMessage(`true`),
			Points:        1,
			SortOrder:     2,
		},
		{
			QuizID:        quiz.ID,
			QuestionText:  "A client wants cherry blossoms. Which month do you recommend?",
			QuestionType:  "scenario",
			Options:       json.RawMessage(`["January","April","August","November"]`),
			CorrectAnswer: json.RawMessage(`1`),
			Points:        2,
			SortOrder:     3,
		},
	}
	if _, err := db.NewInsert().Model(&questions).Exec(ctx); err != nil {
		return fmt.Errorf("seed sample questions: %w", err)
	}
	return nil
}
