package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ikkim/translation-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, locales ...string) *Client {
	c := &Client{
		Hub:           hub,
		ID:            "client-" + time.Now().Format("150405.000000000"),
		Send:          make(chan []byte, 16),
		Locales:       make(map[string]bool),
		LastResetTime: time.Now(),
	}
	for _, code := range locales {
		c.Locales[code] = true
	}
	return c
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestClient_Wants(t *testing.T) {
	all := newTestClient(nil)
	fr := newTestClient(nil, "fr")

	assert.True(t, all.Wants([]string{"en"}))
	assert.True(t, all.Wants(nil))
	assert.True(t, fr.Wants(nil))
	assert.True(t, fr.Wants([]string{"en", "fr"}))
	assert.False(t, fr.Wants([]string{"en"}))
}

func TestHub_BroadcastsToInterestedClients(t *testing.T) {
	hub := runHub(t)
	en := newTestClient(hub, "en")
	fr := newTestClient(hub, "fr")
	hub.Register(en)
	hub.Register(fr)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.ExportsInvalidated(service.InvalidationEvent{
		Entity:  service.EntityTranslation,
		Locales: []string{"en"},
		At:      time.Now(),
	})

	msg := receive(t, en)
	assert.Equal(t, EventExportInvalidated, msg["type"])
	assert.Equal(t, "translation", msg["entity"])
	assert.Equal(t, []interface{}{"en"}, msg["locales"])

	hub.ExportsInvalidated(service.InvalidationEvent{Entity: service.EntityAll, At: time.Now()})
	assert.Equal(t, "all", receive(t, fr)["entity"])
	assert.Equal(t, "all", receive(t, en)["entity"])
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	c := newTestClient(hub)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_HandleClientMessage(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub)

	hub.HandleClientMessage(c, []byte(`{"type":"subscribe","locales":[" EN ","fr"]}`))
	ack := receive(t, c)
	assert.Equal(t, EventSubscribed, ack["type"])
	assert.ElementsMatch(t, []interface{}{"en", "fr"}, ack["locales"])

	hub.HandleClientMessage(c, []byte(`{"type":"unsubscribe","locales":["fr"]}`))
	assert.Equal(t, []interface{}{"en"}, receive(t, c)["locales"])

	hub.HandleClientMessage(c, []byte(`{"type":"unsubscribe"}`))
	assert.Empty(t, receive(t, c)["locales"])

	hub.HandleClientMessage(c, []byte(`not json`))
	hub.HandleClientMessage(c, []byte(`{"type":"typing_start"}`))
	assert.Empty(t, c.Send)
}

func TestHub_HandleClientMessage_RateLimited(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub)

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		hub.HandleClientMessage(c, []byte(`{"type":"subscribe","locales":["en"]}`))
	}
	assert.Len(t, c.Send, maxMessagesPerSecond)
}
