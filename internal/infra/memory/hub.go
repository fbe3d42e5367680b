package memory

import (
	"context"
	"sync"

	"travelpro-gamification/internal/domain"
)

// Hub is an in-process event bus implementing both sides of the notifier
// port. Suitable for single-instance deployments and tests; the Redis
// notifier covers multi-instance setups.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[chan domain.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int64]map[chan domain.Event]struct{})}
}

// Publish fans the event out to the user's subscribers. Slow consumers lose
// their oldest pending event rather than blocking the publisher.
func (h *Hub) Publish(_ context.Context, event domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[event.UserID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

// Subscribe registers a buffered channel for one user's events. The cancel
// function must be called to release it.
func (h *Hub) Subscribe(_ context.Context, userID int64) (<-chan domain.Event, func(), error) {
	ch := make(chan domain.Event, 8)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan domain.Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}
