package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Dosada05/arena/models"
)

// Hub is the connection registry: at most one live client per user id.
// Registering again for the same user replaces the previous client
// (last-write-wins), which is how reconnects work without an explicit
// unregister. The hub holds no gameplay state.
type Hub struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[client.UserID]; ok && old != client {
		old.shutdown()
		h.logger.Info("replacing live connection", slog.String("user_id", client.UserID))
	}
	h.clients[client.UserID] = client
	h.logger.Info("client registered",
		slog.String("user_id", client.UserID),
		slog.Int("total", len(h.clients)))
}

// remove drops the mapping only if it still points at this client, so an
// unregister from a superseded connection cannot evict its replacement.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.UserID]; ok && current == client {
		delete(h.clients, client.UserID)
		h.logger.Info("client unregistered",
			slog.String("user_id", client.UserID),
			slog.Int("total", len(h.clients)))
	}
	client.shutdown()
}

// Notify sends one notification to one user. A missing or closed channel
// is a logged no-op, never an error.
func (h *Hub) Notify(userID string, n models.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("failed to marshal notification",
			slog.String("type", n.Type),
			slog.Any("error", err))
		return
	}
	h.send(userID, payload)
}

// NotifyAll delivers to each recipient independently; one missing or slow
// client never blocks delivery to the others.
func (h *Hub) NotifyAll(userIDs []string, n models.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("failed to marshal notification",
			slog.String("type", n.Type),
			slog.Any("error", err))
		return
	}
	for _, id := range userIDs {
		h.send(id, payload)
	}
}

func (h *Hub) send(userID string, payload []byte) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		h.logger.Info("no live connection for user, dropping message", slog.String("user_id", userID))
		return
	}
	if !client.enqueue(payload) {
		h.logger.Warn("client send buffer unavailable, dropping message", slog.String("user_id", userID))
	}
}

// Connected reports whether the user currently has a live client.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
