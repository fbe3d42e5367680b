package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"travelpro-gamification/internal/domain"
)

// Completion bonus tiers. The perfect and high tiers are mutually exclusive;
// only the highest applicable one is added to the base.
const (
	completionBonus   = 100
	perfectScoreBonus = 50
	highScoreBonus    = 25
	highScoreCutoff   = 90
)

// SubmissionService is the gamification orchestrator: it grades a quiz
// submission and applies every reward side effect inside one atomic unit of
// work. Events are published only after the unit commits.
type SubmissionService struct {
	store    Store
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

func NewSubmissionService(store Store, notifier Notifier, log *slog.Logger) *SubmissionService {
	return &SubmissionService{store: store, notifier: notifier, log: log, now: time.Now}
}

// NewSubmissionServiceWithClock is test-only for deterministic dates.
func NewSubmissionServiceWithClock(store Store, notifier Notifier, log *slog.Logger, now func() time.Time) *SubmissionService {
	return &SubmissionService{store: store, notifier: notifier, log: log, now: now}
}

// submissionState is threaded through the pipeline steps. Each step reads
// what earlier steps produced and appends its own writes and events.
type submissionState struct {
	userID    int64
	quizID    int64
	answers   []json.RawMessage
	timeSpent int
	today     time.Time

	quiz      domain.Quiz
	questions []domain.Question
	grade     GradeResult
	bonus     int
	result    domain.QuizResult
	events    []domain.Event
}

// submissionStep is one named stage of the transactional pipeline. Steps run
// strictly in order; the first error aborts and rolls back everything.
type submissionStep struct {
	name string
	run  func(ctx context.Context, tx Tx, st *submissionState) error
}

func (s *SubmissionService) pipeline() []submissionStep {
	return []submissionStep{
		{"load quiz", s.loadQuiz},
		{"grade answers", s.gradeAnswers},
		{"record result", s.recordResult},
		{"credit completion bonus", s.creditCompletionBonus},
		{"touch streak", s.touchStreak},
		{"award badges", s.awardBadges},
	}
}

// SubmitQuiz grades the submission and credits all gamification rewards.
// answers[i] is bound to the i-th question in sort_order; see Grade.
// On any failure no partial state persists: the caller gets either a full
// summary or a single error and may retry safely.
func (s *SubmissionService) SubmitQuiz(ctx context.Context, userID, quizID int64, answers []json.RawMessage, timeSpent int) (domain.SubmissionSummary, error) {
	if answers == nil {
		return domain.SubmissionSummary{}, domain.ErrInvalidSubmission
	}

	st := &submissionState{
		userID:    userID,
		quizID:    quizID,
		answers:   answers,
		timeSpent: timeSpent,
		today:     s.now(),
	}

	err := s.store.Atomically(ctx, func(ctx context.Context, tx Tx) error {
		for _, step := range s.pipeline() {
			if err := step.run(ctx, tx, st); err != nil {
				return fmt.Errorf("%s: %w", step.name, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.SubmissionSummary{}, domain.ErrQuizNotFound
		}
		s.log.Error("quiz submission rolled back",
			"userId", userID, "quizId", quizID, "error", err)
		return domain.SubmissionSummary{}, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	s.publish(ctx, st.events)

	return domain.SubmissionSummary{
		ResultID:           st.result.ID,
		Score:              st.grade.Score,
		Passed:             st.grade.Passed,
		PointsEarned:       st.grade.EarnedPoints,
		GamificationPoints: st.bonus,
		CorrectAnswers:     st.grade.CorrectCount,
		TotalQuestions:     len(st.questions),
	}, nil
}

func (s *SubmissionService) loadQuiz(ctx context.Context, tx Tx, st *submissionState) error {
	quiz, err := tx.Quiz(ctx, st.quizID)
	if err != nil {
		return err
	}
	questions, err := tx.Questions(ctx, st.quizID)
	if err != nil {
		return err
	}
	st.quiz = quiz
	st.questions = questions
	return nil
}

func (s *SubmissionService) gradeAnswers(_ context.Context, _ Tx, st *submissionState) error {
	st.grade = Grade(st.quiz, st.questions, st.answers)

	st.bonus = completionBonus
	switch {
	case st.grade.Score == 100:
		st.bonus += perfectScoreBonus
	case st.grade.Score >= highScoreCutoff:
		st.bonus += highScoreBonus
	}
	return nil
}

func (s *SubmissionService) recordResult(ctx context.Context, tx Tx, st *submissionState) error {
	prior, err := tx.CountResults(ctx, st.userID, st.quizID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(st.answers)
	if err != nil {
		return err
	}
	st.result = domain.QuizResult{
		UserID:        st.userID,
		QuizID:        st.quizID,
		Score:         st.grade.Score,
		PointsEarned:  st.grade.EarnedPoints,
		TimeSpent:     st.timeSpent,
		Answers:       raw,
		Passed:        st.grade.Passed,
		AttemptNumber: prior + 1,
		CompletedAt:   st.today,
	}
	return tx.InsertResult(ctx, &st.result)
}

func (s *SubmissionService) creditCompletionBonus(ctx context.Context, tx Tx, st *submissionState) error {
	quizID := st.quizID
	entry := domain.PointLedgerEntry{
		UserID:      st.userID,
		Points:      st.bonus,
		Source:      domain.SourceQuizCompletion,
		SourceID:    &quizID,
		Description: "Quiz: " + st.quiz.Title,
		CreatedAt:   st.today,
	}
	if err := tx.InsertLedgerEntry(ctx, &entry); err != nil {
		return err
	}
	st.events = append(st.events, domain.Event{
		ID:         uuid.NewString(),
		Type:       domain.EventQuizCompleted,
		UserID:     st.userID,
		OccurredAt: st.today,
		Payload: domain.QuizCompletedPayload{
			QuizID:             st.quizID,
			QuizTitle:          st.quiz.Title,
			Score:              st.grade.Score,
			Passed:             st.grade.Passed,
			GamificationPoints: st.bonus,
		},
	})
	return nil
}

func (s *SubmissionService) touchStreak(ctx context.Context, tx Tx, st *submissionState) error {
	streak, err := tx.StreakForUpdate(ctx, st.userID, domain.StreakDaily)
	if err != nil {
		return err
	}
	if streak == nil {
		fresh := NewStreak(st.userID, domain.StreakDaily, st.today)
		return tx.SaveStreak(ctx, &fresh)
	}
	if !TouchStreak(streak, st.today) {
		return nil // already counted today
	}
	return tx.SaveStreak(ctx, streak)
}

func (s *SubmissionService) awardBadges(ctx context.Context, tx Tx, st *submissionState) error {
	stats, err := tx.UserStats(ctx, st.userID)
	if err != nil {
		return err
	}
	catalog, err := tx.Badges(ctx)
	if err != nil {
		return err
	}
	owned, err := tx.UserBadgeIDs(ctx, st.userID)
	if err != nil {
		return err
	}

	for _, badge := range EligibleBadges(catalog, stats, owned) {
		award := domain.UserBadge{UserID: st.userID, BadgeID: badge.ID, EarnedAt: st.today}
		if err := tx.InsertUserBadge(ctx, &award); err != nil {
			// A concurrent submission beat us to it. The unique constraint
			// is the final backstop; keep evaluating the rest.
			if errors.Is(err, domain.ErrBadgeAlreadyAwarded) {
				continue
			}
			return err
		}
		if badge.PointsReward > 0 {
			badgeID := badge.ID
			entry := domain.PointLedgerEntry{
				UserID:      st.userID,
				Points:      badge.PointsReward,
				Source:      domain.SourceBadgeEarned,
				SourceID:    &badgeID,
				Description: "Badge: " + badge.Name,
				CreatedAt:   st.today,
			}
			if err := tx.InsertLedgerEntry(ctx, &entry); err != nil {
				return err
			}
		}
		st.events = append(st.events, domain.Event{
			ID:         uuid.NewString(),
			Type:       domain.EventBadgeEarned,
			UserID:     st.userID,
			OccurredAt: st.today,
			Payload: domain.BadgeEarnedPayload{
				BadgeID:      badge.ID,
				Name:         badge.Name,
				Icon:         badge.Icon,
				Rarity:       badge.Rarity,
				PointsReward: badge.PointsReward,
			},
		})
	}
	return nil
}

// publish delivers post-commit events best effort. A notifier failure is
// logged, never surfaced: the submission already committed.
func (s *SubmissionService) publish(ctx context.Context, events []domain.Event) {
	if s.notifier == nil {
		return
	}
	for _, ev := range events {
		if err := s.notifier.Publish(ctx, ev); err != nil {
			s.log.Warn("event publish failed", "type", ev.Type, "userId", ev.UserID, "error", err)
		}
	}
}
