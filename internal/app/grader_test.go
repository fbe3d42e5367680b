package app_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
)

func threeQuestions() []domain.Question {
	return []domain.Question{
		{Points: 1, SortOrder: 1, CorrectAnswer: json.RawMessage(`0`)},
		{Points: 1, SortOrder: 2, CorrectAnswer: json.RawMessage(`true`)},
		{Points: 2, SortOrder: 3, CorrectAnswer: json.RawMessage(`"tokyo"`)},
	}
}

func TestGrade(t *testing.T) {
	quiz := domain.Quiz{PassingScore: 70}

	tests := []struct {
		name    string
		answers []json.RawMessage
		want    app.GradeResult
	}{
		{
			name:    "all correct",
			answers: []json.RawMessage{[]byte(`0`), []byte(`true`), []byte(`"tokyo"`)},
			want:    app.GradeResult{Score: 100, Passed: true, EarnedPoints: 4, TotalPoints: 4, CorrectCount: 3},
		},
		{
			name:    "partially correct fails below threshold",
			answers: []json.RawMessage{[]byte(`0`), []byte(`false`), []byte(`"osaka"`)},
			want:    app.GradeResult{Score: 25, Passed: false, EarnedPoints: 1, TotalPoints: 4, CorrectCount: 1},
		},
		{
			name:    "above threshold passes",
			answers: []json.RawMessage{[]byte(`1`), []byte(`true`), []byte(`"tokyo"`)},
			want:    app.GradeResult{Score: 75, Passed: true, EarnedPoints: 3, TotalPoints: 4, CorrectCount: 2},
		},
		{
			name:    "short answer array counts missing as wrong",
			answers: []json.RawMessage{[]byte(`0`)},
			want:    app.GradeResult{Score: 25, Passed: false, EarnedPoints: 1, TotalPoints: 4, CorrectCount: 1},
		},
		{
			name:    "extra answers are ignored",
			answers: []json.RawMessage{[]byte(`0`), []byte(`true`), []byte(`"tokyo"`), []byte(`99`)},
			want:    app.GradeResult{Score: 100, Passed: true, EarnedPoints: 4, TotalPoints: 4, CorrectCount: 3},
		},
		{
			name:    "empty submission fails everything",
			answers: []json.RawMessage{},
			want:    app.GradeResult{Score: 0, Passed: false, EarnedPoints: 0, TotalPoints: 4, CorrectCount: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := app.Grade(quiz, threeQuestions(), tt.answers)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGradePassingBoundaryIsInclusive(t *testing.T) {
	quiz := domain.Quiz{PassingScore: 75}

	got := app.Grade(quiz, threeQuestions(), []json.RawMessage{[]byte(`1`), []byte(`true`), []byte(`"tokyo"`)})
	if got.Score != 75 {
		t.Fatalf("fixture drifted: score %v", got.Score)
	}
	assert.True(t, got.Passed)

	quiz.PassingScore = 76
	got = app.Grade(quiz, threeQuestions(), []json.RawMessage{[]byte(`1`), []byte(`true`), []byte(`"tokyo"`)})
	assert.False(t, got.Passed)
}

func TestGradeNoTypeCoercion(t *testing.T) {
	quiz := domain.Quiz{PassingScore: 50}
	questions := []domain.Question{
		{Points: 1, CorrectAnswer: json.RawMessage(`true`)},
		{Points: 1, CorrectAnswer: json.RawMessage(`1`)},
	}

	// A JSON string never matches a boolean or number, even when it reads
	// the same.
	got := app.Grade(quiz, questions, []json.RawMessage{[]byte(`"true"`), []byte(`"1"`)})
	assert.Equal(t, 0, got.CorrectCount)
	assert.False(t, got.Passed)
}

func TestGradeObjectAnswersCompareDeeply(t *testing.T) {
	quiz := domain.Quiz{PassingScore: 100}
	questions := []domain.Question{
		{Points: 1, CorrectAnswer: json.RawMessage(`{"city":"Tokyo","days":3}`)},
	}

	// Key order does not matter; values do.
	got := app.Grade(quiz, questions, []json.RawMessage{[]byte(`{"days":3,"city":"Tokyo"}`)})
	assert.Equal(t, 1, got.CorrectCount)

	got = app.Grade(quiz, questions, []json.RawMessage{[]byte(`{"days":4,"city":"Tokyo"}`)})
	assert.Equal(t, 0, got.CorrectCount)
}

func TestGradeMalformedAnswerIsIncorrect(t *testing.T) {
	quiz := domain.Quiz{PassingScore: 50}
	questions := []domain.Question{
		{Points: 1, CorrectAnswer: json.RawMessage(`0`)},
	}

	got := app.Grade(quiz, questions, []json.RawMessage{[]byte(`{not json`)})
	assert.Equal(t, 0, got.CorrectCount)
}

func TestGradeZeroQuestions(t *testing.T) {
	quiz := domain.Quiz{PassingScore: 70}

	got := app.Grade(quiz, nil, []json.RawMessage{})
	assert.Equal(t, float64(0), got.Score)
	assert.False(t, got.Passed)
	assert.Equal(t, 0, got.TotalPoints)
}
