// Package redis carries gamification events across instances over Redis
// pub/sub, one channel per user.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"travelpro-gamification/internal/domain"
)

// Notifier implements app.Notifier and app.Subscriber on a Redis client.
type Notifier struct {
	client *redis.Client
	log    *slog.Logger
}

func NewNotifier(client *redis.Client, log *slog.Logger) *Notifier {
	return &Notifier{client: client, log: log}
}

func (n *Notifier) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, channelFor(event.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe streams the user's events until cancel is called. Undecodable
// messages are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, userID int64) (<-chan domain.Event, func(), error) {
	pubsub := n.client.Subscribe(ctx, channelFor(userID))
	// Force the SUBSCRIBE round trip so a dead Redis fails here, not later.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe user %d: %w", userID, err)
	}

	events := make(chan domain.Event, 8)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.log.Warn("dropping undecodable event", "channel", msg.Channel, "error", err)
				continue
			}
			events <- event
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return events, cancel, nil
}

func channelFor(userID int64) string {
	return "gamification:user:" + strconv.FormatInt(userID, 10)
}
