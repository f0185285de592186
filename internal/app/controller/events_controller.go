package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ikkim/translation-backend/internal/middleware"
	ws "github.com/ikkim/translation-backend/internal/websocket"
	"github.com/ikkim/translation-backend/pkg/util"
)

const clientSendBuffer = 256

// EventsController streams export invalidation events so clients can refetch
// instead of polling.
type EventsController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewEventsController accepts browser origins from allowedOrigins; "*" or an
// empty list accepts any origin.
func NewEventsController(hub *ws.Hub, allowedOrigins []string) *EventsController {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &EventsController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// Subscribe upgrades the connection and registers it with the hub
// GET /api/v1/export/events
// Query params:
//   - locales: comma separated initial subscription
func (ctrl *EventsController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already answered the request
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := &ws.Client{
		Hub:           ctrl.hub,
		Conn:          &ws.Conn{Conn: conn},
		ID:            uuid.NewString(),
		Send:          make(chan []byte, clientSendBuffer),
		Locales:       make(map[string]bool),
		LastResetTime: time.Now(),
	}
	for _, code := range util.SplitCSV(c.Query("locales")) {
		client.Locales[strings.ToLower(code)] = true
	}

	ctrl.hub.Register(client)

	go client.WriteEvents()
	go client.ReadSubscriptions()

	log.Info("Export event stream opened", map[string]interface{}{
		"client_id": client.ID,
		"locales":   len(client.Locales),
	})
}
