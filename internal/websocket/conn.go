package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/translation-backend/pkg/logger"
)

const (
	// deadline for a single event or control frame
	writeWait = 10 * time.Second

	// a subscriber that misses pongs for this long is dropped
	pongWait = 60 * time.Second

	// must stay below pongWait
	pingPeriod = (pongWait * 9) / 10

	// subscribe/unsubscribe frames only carry a few locale codes
	maxMessageSize = 4 * 1024
)

// Conn is the transport of one event subscriber.
type Conn struct {
	*websocket.Conn
}

// ReadSubscriptions applies subscribe and unsubscribe frames from the client
// until it disconnects, then removes it from the hub.
func (c *Client) ReadSubscriptions() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
		logger.Debug("Export event subscriber left", map[string]interface{}{
			"client_id": c.ID,
			"locales":   c.subscriptions(),
		})
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("Export event subscriber read failed", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, frame)
	}
}

// WriteEvents delivers invalidation events and subscription acks, one JSON
// document per text frame, and pings the client between events. When the hub
// closes Send (shutdown or a full buffer) the client gets a going-away close.
func (c *Client) WriteEvents() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "event stream closed"))
				return
			}
			if !c.writeEvent(event) {
				return
			}

			// drain what queued up during the write under the same deadline
			for n := len(c.Send); n > 0; n-- {
				if !c.writeEvent(<-c.Send) {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeEvent(event []byte) bool {
	if err := c.Conn.WriteMessage(websocket.TextMessage, event); err != nil {
		logger.Warn("Failed to deliver export event", map[string]interface{}{
			"client_id": c.ID,
			"error":     err.Error(),
		})
		return false
	}
	return true
}
