package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"travelpro-gamification/internal/domain"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewNotifier(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishReachesSubscriber(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	events, cancel, err := notifier.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	sent := domain.Event{
		ID:         "e1",
		Type:       domain.EventBadgeEarned,
		UserID:     1,
		OccurredAt: time.Now().UTC(),
	}
	if err := notifier.Publish(ctx, sent); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-events:
		if got.ID != sent.ID || got.Type != sent.Type || got.UserID != sent.UserID {
			t.Fatalf("event mismatch: sent %+v got %+v", sent, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestSubscriberIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	events, cancel, err := notifier.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	if err := notifier.Publish(ctx, domain.Event{ID: "other", UserID: 2}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-events:
		t.Fatalf("received another user's event: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelClosesEventStream(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	events, cancel, err := notifier.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	cancel()

	select {
	case _, open := <-events:
		if open {
			t.Fatalf("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for channel close")
	}
}
