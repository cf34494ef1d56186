package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// How often the match feed version is polled; clients refetch at most once per interval
	versionPollInterval = 2 * time.Second

	// MessageTypeMatchesUpdated tells clients to re-run their match search
	MessageTypeMatchesUpdated = "MATCHES_UPDATED"
)

// VersionSource reports the current match feed version
type VersionSource interface {
	GetMatchFeedVersion(ctx context.Context) (int64, error)
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts feed changes to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	versions VersionSource

	mu sync.RWMutex

	// owned by the Run goroutine
	lastVersion int64
}

// VersionUpdate is the message pushed to clients when the feed changes
type VersionUpdate struct {
	Type    string `json:"type"`
	Version int64  `json:"version"`
}

// NewHub creates a new WebSocket hub
func NewHub(versions VersionSource) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		versions:   versions,
	}
}

// Run serves registrations and polls the feed version until ctx is done
func (h *Hub) Run(ctx context.Context) {
	logger.Info("WebSocket hub started")

	ticker := time.NewTicker(versionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("WebSocket client connected", "clients", total)

			h.sendInitialVersion(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debug("WebSocket client disconnected", "clients", total)

		case <-ticker.C:
			h.checkAndBroadcastVersion(ctx)

		case <-ctx.Done():
			logger.Info("WebSocket hub shutting down")
			return
		}
	}
}

// checkAndBroadcastVersion broadcasts when the feed version moved since the last poll
func (h *Hub) checkAndBroadcastVersion(ctx context.Context) {
	currentVersion, err := h.versions.GetMatchFeedVersion(ctx)
	if err != nil {
		logger.Warn("Failed to read match feed version", "error", err)
		return
	}

	if currentVersion == h.lastVersion {
		return
	}
	h.lastVersion = currentVersion

	message, err := encodeUpdate(currentVersion)
	if err != nil {
		logger.Error("Failed to marshal version update", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	logger.Debug("Match feed changed, broadcasting", "version", currentVersion, "clients", len(h.clients))
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			logger.Warn("WebSocket client send buffer full, skipping update")
		}
	}
}

// sendInitialVersion gives a new client the version to compare later updates with
func (h *Hub) sendInitialVersion(ctx context.Context, client *Client) {
	currentVersion, err := h.versions.GetMatchFeedVersion(ctx)
	if err != nil {
		logger.Warn("Failed to read initial match feed version", "error", err)
		return
	}

	if h.lastVersion == 0 {
		h.lastVersion = currentVersion
	}

	message, err := encodeUpdate(currentVersion)
	if err != nil {
		logger.Error("Failed to marshal initial version", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client] {
		return
	}

	select {
	case client.send <- message:
	default:
		logger.Warn("WebSocket client send buffer full, skipping initial version")
	}
}

func encodeUpdate(version int64) ([]byte, error) {
	return json.Marshal(VersionUpdate{
		Type:    MessageTypeMatchesUpdated,
		Version: version,
	})
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the connection until the peer goes away
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		// Clients do not send anything meaningful; reads only detect disconnects
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket unexpected close", "error", err)
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		// Coalesce queued updates into the current frame
		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write([]byte{'\n'})
			w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}

	// The hub closed the channel
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS registers conn with the hub and blocks until it disconnects
func ServeWS(hub *Hub, conn *websocket.Conn) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()
	client.readPump()
}
