package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventMessage    = "message"
	EventConnection = "connection"
)

// Event is the JSON frame pushed to clients: {"type": ..., "data": ...}.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks live websocket clients per user. A user may have several tabs
// open; each gets its own Client.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub accepts upgrades from the given browser origins. "*" allows any
// origin; requests without an Origin header (non-browser clients) are
// always allowed.
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// ServeWS upgrades the request and starts the client's pumps. The caller
// has already authenticated userID. On upgrade failure the upgrader has
// written the HTTP error response.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	client := newClient(h, conn, userID)
	h.register(client)

	go client.writePump()
	go client.readPump()
	return nil
}

// Notify pushes ev to every connection of userID. It never blocks: a client
// whose buffer is full misses the event.
func (h *Hub) Notify(userID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal realtime event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("realtime client buffer full, dropping event",
				zap.String("user_id", userID),
				zap.String("type", ev.Type),
			)
		}
	}
}

// Online returns how many connections userID currently has.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for client := range set {
			close(client.send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("websocket client registered", zap.String("user_id", c.userID), zap.Int("connections", len(set)))
}

// unregister is safe to call after Close has already dropped the client.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.logger.Debug("websocket client unregistered", zap.String("user_id", c.userID))
}
