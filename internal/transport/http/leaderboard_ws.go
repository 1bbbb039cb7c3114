package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"telegram-quiz-bot/internal/app"
	"telegram-quiz-bot/internal/domain"
)

// LeaderboardHandler streams leaderboard snapshots to websocket clients over
// the ops server: the current standing on connect, then one message per
// mutating quiz event.
type LeaderboardHandler struct {
	controller *app.Controller
	upgrader   websocket.Upgrader
}

func NewLeaderboardHandler(controller *app.Controller) *LeaderboardHandler {
	return &LeaderboardHandler{
		controller: controller,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and pushes leaderboard updates until the
// client goes away. The feed is read-only; inbound frames are discarded.
func (h *LeaderboardHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.controller.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}

// NewMux wires the ops routes: health probe plus the leaderboard feed.
func NewMux(controller *app.Controller) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/leaderboard", NewLeaderboardHandler(controller).ServeWS)
	return mux
}
