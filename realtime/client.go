package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/arena/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// IntentRouter receives decoded client intents. Implemented by the
// matchmaking orchestrator; the realtime layer never interprets payloads.
type IntentRouter interface {
	HandleIntent(ctx context.Context, userID string, msg models.ClientMessage)
}

// Client is one live websocket connection bound to a user id.
type Client struct {
	UserID string

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	router IntentRouter
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, router IntentRouter, logger *slog.Logger) *Client {
	return &Client{
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		router: router,
		logger: logger,
	}
}

// enqueue hands a marshalled message to the write pump without blocking.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once; the write pump drains and
// closes the connection.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump decodes inbound intent envelopes and routes them. It owns the
// read side of the connection and unregisters the client on any read error.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected websocket close",
					slog.String("user_id", c.UserID),
					slog.Any("error", err))
			}
			return
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Warn("dropping malformed client message",
				slog.String("user_id", c.UserID),
				slog.Any("error", err))
			continue
		}
		c.router.HandleIntent(context.Background(), c.UserID, msg)
	}
}

// WritePump flushes queued messages and keeps the connection alive with
// pings. It exits when the send channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn("websocket write failed",
					slog.String("user_id", c.UserID),
					slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
