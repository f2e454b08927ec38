package http

import (
	"log/slog"
	"net/http"

	"riddle-game-service/internal/app"
	"riddle-game-service/internal/domain"

	"github.com/gorilla/websocket"
)

// WSHandler streams leaderboard snapshots to connected clients. The feed is
// push-only: clients get the current standings on connect and a fresh
// snapshot after every session start and score change.
type WSHandler struct {
	game     *app.GameService
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(game *app.GameService, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		game: game,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type leaderboardMessage struct {
	Type    string                    `json:"type"`
	Payload []domain.LeaderboardEntry `json:"payload"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	updates, cancel := h.game.Subscribe(r.Context())
	defer cancel()

	// Reader goroutine only detects disconnects; inbound frames are ignored.
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
		case entries, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(leaderboardMessage{Type: "leaderboard", Payload: entries}); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
