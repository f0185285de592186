package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/ikkim/translation-backend/pkg/logger"
)

const (
	// client messages allowed per second
	maxMessagesPerSecond = 10

	maxSubscribedLocales = 50

	EventExportInvalidated = "export_invalidated"
	EventSubscribed        = "subscribed"
)

// ClientMessage is sent by a client to choose which locales it hears about.
// An empty subscription list means every locale.
type ClientMessage struct {
	Type    string   `json:"type"` // subscribe, unsubscribe
	Locales []string `json:"locales"`
}

// Client is one connected export consumer.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	ID            string
	Send          chan []byte
	Locales       map[string]bool
	mu            sync.RWMutex
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

// Wants reports whether an event touching the given locales concerns the
// client. An event without locales concerns everyone.
func (c *Client) Wants(locales []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.Locales) == 0 || len(locales) == 0 {
		return true
	}
	for _, code := range locales {
		if c.Locales[code] {
			return true
		}
	}
	return false
}

func (c *Client) subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.Locales))
	for code := range c.Locales {
		out = append(out, code)
	}
	return out
}

// Hub fans export invalidation events out to connected clients.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage is an encoded event and the locales it touches.
type BroadcastMessage struct {
	Locales []string
	Message []byte
}

type invalidationMessage struct {
	Type string `json:"type"`
	service.InvalidationEvent
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"client_id": client.ID,
				"total":     total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"client_id": client.ID,
				"remaining": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.Wants(message.Locales) {
					continue
				}
				select {
				case client.Send <- message.Message:
				default:
					// slow consumer; drop it rather than stall the hub
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"client_id": client.ID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ExportsInvalidated queues an invalidation event for every interested
// client. A full queue drops the event.
func (h *Hub) ExportsInvalidated(ev service.InvalidationEvent) {
	data, err := json.Marshal(invalidationMessage{Type: EventExportInvalidated, InvalidationEvent: ev})
	if err != nil {
		logger.Error("Failed to marshal invalidation event", err)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{Locales: ev.Locales, Message: data}:
	default:
		logger.Warn("Broadcast channel full, invalidation event dropped", map[string]interface{}{
			"entity": ev.Entity,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount is the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage applies a subscribe or unsubscribe request and answers
// with the resulting subscription list.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("WebSocket rate limit exceeded", map[string]interface{}{
			"client_id": client.ID,
			"count":     count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"client_id": client.ID,
			"error":     err.Error(),
		})
		return
	}

	switch msg.Type {
	case "subscribe":
		client.mu.Lock()
		for _, code := range msg.Locales {
			code = strings.ToLower(strings.TrimSpace(code))
			if code != "" && len(client.Locales) < maxSubscribedLocales {
				client.Locales[code] = true
			}
		}
		client.mu.Unlock()
	case "unsubscribe":
		client.mu.Lock()
		if len(msg.Locales) == 0 {
			client.Locales = make(map[string]bool)
		}
		for _, code := range msg.Locales {
			delete(client.Locales, strings.ToLower(strings.TrimSpace(code)))
		}
		client.mu.Unlock()
	default:
		logger.Debug("Ignoring unknown client message", map[string]interface{}{
			"client_id": client.ID,
			"type":      msg.Type,
		})
		return
	}

	ack, err := json.Marshal(map[string]interface{}{
		"type":    EventSubscribed,
		"locales": client.subscriptions(),
	})
	if err != nil {
		return
	}
	select {
	case client.Send <- ack:
	default:
	}
}
