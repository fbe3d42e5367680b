package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"travelpro-gamification/internal/app"
	"travelpro-gamification/internal/domain"
)

func seededStore() *Store {
	store := NewStore()
	store.AddUser(1, "Alice", 10)
	store.AddUser(2, "Bob", 10)
	store.AddUser(3, "Carol", 20)
	store.AddQuiz(domain.Quiz{ID: 1, Title: "Japan", PassingScore: 70}, []domain.Question{
		{ID: 1, QuizID: 1, Points: 1, SortOrder: 2, CorrectAnswer: json.RawMessage(`1`)},
		{ID: 2, QuizID: 1, Points: 1, SortOrder: 1, CorrectAnswer: json.RawMessage(`0`)},
	})
	store.AddBadge(domain.Badge{ID: 1, Name: "First Steps", PointsReward: 50})
	return store
}

func TestAtomicallyDiscardsWritesOnError(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(ctx context.Context, tx app.Tx) error {
		result := domain.QuizResult{UserID: 1, QuizID: 1, Score: 50}
		if err := tx.InsertResult(ctx, &result); err != nil {
			return err
		}
		entry := domain.PointLedgerEntry{UserID: 1, Points: 100, Source: domain.SourceQuizCompletion}
		if err := tx.InsertLedgerEntry(ctx, &entry); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}

	if got := store.Results(1); len(got) != 0 {
		t.Fatalf("rollback kept results: %+v", got)
	}
	if got := store.LedgerEntries(1); len(got) != 0 {
		t.Fatalf("rollback kept ledger entries: %+v", got)
	}
}

func TestAtomicallyCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	err := store.Atomically(ctx, func(ctx context.Context, tx app.Tx) error {
		result := domain.QuizResult{UserID: 1, QuizID: 1, Score: 50}
		return tx.InsertResult(ctx, &result)
	})
	if err != nil {
		t.Fatalf("atomically failed: %v", err)
	}
	if got := store.Results(1); len(got) != 1 {
		t.Fatalf("expected committed result, got %+v", got)
	}
}

func TestQuizLookupRequiresActiveStatus(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	store.AddQuiz(domain.Quiz{ID: 2, Title: "Draft", Status: "draft"}, nil)

	err := store.Atomically(ctx, func(ctx context.Context, tx app.Tx) error {
		_, err := tx.Quiz(ctx, 2)
		return err
	})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for draft quiz, got %v", err)
	}
}

func TestQuestionsAreSortedBySortOrder(t *testing.T) {
	ctx := context.Background()
	store := seededStore()

	var questions []domain.Question
	err := store.Atomically(ctx, func(ctx context.Context, tx app.Tx) error {
		var err error
		questions, err = tx.Questions(ctx, 1)
		return err
	})
	if err != nil {
		t.Fatalf("questions failed: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != 2 || questions[1].ID != 1 {
		t.Fatalf("expected sort_order ordering, got %+v", questions)
	}
}

func addPoints(t *testing.T, store *Store, userID int64, points int) {
	t.Helper()
	err := store.Atomically(context.Background(), func(ctx context.Context, tx app.Tx) error {
		entry := domain.PointLedgerEntry{UserID: userID, Points: points, Source: domain.SourceQuizCompletion}
		return tx.InsertLedgerEntry(ctx, &entry)
	})
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
}

func TestLeaderboardRanksWithinCompany(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	addPoints(t, store, 1, 100)
	addPoints(t, store, 2, 250)
	addPoints(t, store, 3, 999) // other company

	entries, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected company members only, got %+v", entries)
	}
	if entries[0].UserID != 2 || entries[0].Rank != 1 || entries[0].TotalPoints != 250 {
		t.Fatalf("expected Bob first, got %+v", entries[0])
	}
	if entries[1].UserID != 1 || entries[1].Rank != 2 {
		t.Fatalf("expected Alice second, got %+v", entries[1])
	}
}

func TestUserTotalsUnknownUser(t *testing.T) {
	store := seededStore()

	_, err := store.UserTotals(context.Background(), 99)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPointsHistoryNewestFirst(t *testing.T) {
	store := seededStore()
	addPoints(t, store, 1, 10)
	addPoints(t, store, 1, 20)
	addPoints(t, store, 1, 30)

	history, err := store.PointsHistory(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("points history failed: %v", err)
	}
	if len(history) != 2 || history[0].Points != 30 || history[1].Points != 20 {
		t.Fatalf("expected newest first with limit, got %+v", history)
	}
}

func TestListQuizzesSkipsInactive(t *testing.T) {
	store := seededStore()
	store.AddQuiz(domain.Quiz{ID: 3, Title: "Archived", Status: "archived"}, nil)

	listings, err := store.ListQuizzes(context.Background())
	if err != nil {
		t.Fatalf("list quizzes failed: %v", err)
	}
	if len(listings) != 1 || listings[0].ID != 1 || listings[0].QuestionCount != 2 {
		t.Fatalf("expected only the active quiz, got %+v", listings)
	}
}

func TestHubDeliversToSubscribedUserOnly(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	chAlice, cancelAlice, err := hub.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancelAlice()
	chBob, cancelBob, err := hub.Subscribe(ctx, 2)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancelBob()

	event := domain.Event{ID: "e1", Type: domain.EventQuizCompleted, UserID: 1, OccurredAt: time.Now()}
	if err := hub.Publish(ctx, event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-chAlice:
		if got.ID != "e1" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}

	select {
	case got := <-chBob:
		t.Fatalf("event leaked to another user: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	cancel()

	if _, open := <-ch; open {
		t.Fatalf("expected channel closed after cancel")
	}
	if err := hub.Publish(ctx, domain.Event{ID: "e2", UserID: 1}); err != nil {
		t.Fatalf("publish after cancel failed: %v", err)
	}
}
