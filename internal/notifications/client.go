package notifications

import (
	"log/slog"
	"time"

	"socialfeed/internal/middleware"
	"socialfeed/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Clients only send control frames, so inbound messages stay small.
	maxMessageSize = 1024
	sendBuffer     = 256
)

var droppedNotice = []byte(`{"type":"notifications.dropped","payload":{"reason":"buffer_full"}}`)

// Client is one websocket subscribed to a user's notifications.
type Client struct {
	UserID uint
	// Send carries outbound frames; the hub closes it on Unregister or Shutdown.
	Send chan []byte

	hub  *Hub
	conn *websocket.Conn
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
		hub:    hub,
		conn:   conn,
	}
}

// trySend queues message without blocking. Callers hold the hub's read lock,
// so Send cannot be closed underneath it.
func (c *Client) trySend(message []byte) {
	select {
	case c.Send <- message:
		return
	default:
	}

	observability.NotificationDrops.Inc()
	middleware.Logger.Warn("notification buffer full, dropping message", slog.Uint64("user_id", uint64(c.UserID)))
	select {
	case c.Send <- droppedNotice:
	default:
	}
}

// ReadPump drains inbound frames so pongs and close frames are processed.
// It returns when the peer goes away and unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Info("notification socket closed",
					slog.Uint64("user_id", uint64(c.UserID)),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// WritePump writes queued notifications and keepalive pings until Send is
// closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
				_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
