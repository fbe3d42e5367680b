package app

import (
	"encoding/json"
	"reflect"

	"travelpro-gamification/internal/domain"
)

// GradeResult is the outcome of scoring one submission against a quiz.
type GradeResult struct {
	Score        float64
	Passed       bool
	EarnedPoints int
	TotalPoints  int
	CorrectCount int
}

// Grade scores submitted answers against the quiz questions.
//
// Alignment is positional: answers[i] is graded against questions[i], where
// questions are sorted by sort_order ascending. This is a wire contract with
// the client; there is no question-id cross-check. Indices past the end of
// the submitted array count as incorrect.
func Grade(quiz domain.Quiz, questions []domain.Question, answers []json.RawMessage) GradeResult {
	var res GradeResult
	for i, q := range questions {
		res.TotalPoints += q.Points
		if i >= len(answers) {
			continue
		}
		if answerMatches(answers[i], q.CorrectAnswer) {
			res.EarnedPoints += q.Points
			res.CorrectCount++
		}
	}
	if res.TotalPoints > 0 {
		res.Score = float64(res.EarnedPoints) / float64(res.TotalPoints) * 100
	}
	// Inclusive boundary: hitting the passing score exactly passes.
	res.Passed = res.Score >= float64(quiz.PassingScore)
	return res
}

// answerMatches decodes both sides and compares by deep value equality.
// No type coercion: boolean true does not match the string "true".
// Malformed input never errors; it simply fails the comparison.
func answerMatches(submitted, correct json.RawMessage) bool {
	if len(submitted) == 0 || len(correct) == 0 {
		return false
	}
	var got, want any
	if err := json.Unmarshal(submitted, &got); err != nil {
		return false
	}
	if err := json.Unmarshal(correct, &want); err != nil {
		return false
	}
	return reflect.DeepEqual(got, want)
}
