package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"travelpro-gamification/internal/app"
)

// WSHandler streams a user's gamification events (quiz completions, badge
// awards) over a websocket. It is a thin delivery shim over the subscriber
// port; the submission pipeline never knows it exists.
type WSHandler struct {
	subscriber app.Subscriber
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

func NewWSHandler(subscriber app.Subscriber, log *slog.Logger) *WSHandler {
	return &WSHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ServeWS upgrades the request and forwards the caller's events until either
// side disconnects. Auth ran in the middleware; the identity decides which
// stream the socket gets.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	caller, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	events, cancel, err := h.subscriber.Subscribe(r.Context(), caller.UserID)
	if err != nil {
		h.log.Error("ws subscribe", "userId", caller.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(outboundMessage{Type: "connected"}); err != nil {
		return
	}

	// Reader goroutine only watches for the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: string(event.Type), Payload: event}); err != nil {
				h.log.Warn("ws write failed", "userId", caller.UserID, "error", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
