package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Client is one dashboard WebSocket connection.
type Client struct {
	AdminID uint
	Send    chan []byte
	Hub     *Hub // set so Close() can unregister
	mu      sync.Mutex
	closed  bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
	close(c.Send)
}

// Event is the envelope pushed to dashboards.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Hub fans out payment and request events to every connected admin.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// adminID -> clients (one admin can have several tabs open)
	byAdmin map[uint]map[*Client]struct{}
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byAdmin: make(map[uint]map[*Client]struct{}),
		now:     time.Now,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	if h.byAdmin[c.AdminID] == nil {
		h.byAdmin[c.AdminID] = make(map[*Client]struct{})
	}
	h.byAdmin[c.AdminID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byAdmin[c.AdminID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byAdmin, c.AdminID)
		}
	}
}

// Publish broadcasts an event to all dashboards. Slow clients miss events
// rather than block the publisher.
func (h *Hub) Publish(event string, payload any) {
	h.BroadcastAll(Event{Type: event, Data: payload, At: h.now().UTC()})
}

func (h *Hub) BroadcastAll(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) AdminCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byAdmin)
}
