package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/arena/middleware"
	"github.com/Dosada05/arena/realtime"
	"github.com/Dosada05/arena/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the platform origin once the frontend domain
		// is settled.
		return true
	},
}

type WebSocketHandler struct {
	hub        *realtime.Hub
	matchmaker *services.Matchmaker
	logger     *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, matchmaker *services.Matchmaker, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, matchmaker: matchmaker, logger: logger}
}

// ServeWs upgrades an authenticated request into the player's live
// matchmaking connection. A reconnect simply replaces the previous one.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Warn("websocket upgrade failed",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, userID, h.matchmaker, h.logger)
	h.matchmaker.AddClient(client)

	go client.WritePump()
	go client.ReadPump()
}
