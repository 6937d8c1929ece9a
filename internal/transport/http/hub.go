package http

import (
	"encoding/json"
	"log"
	"sync"
)

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type client struct {
	id     string
	userID string
	send   chan []byte
}

// Hub tracks live connections and fans events out to them. Sends never block:
// when a client's buffer is full its oldest frame is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	buffer  int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{clients: make(map[string]*client), buffer: buffer}
}

func (h *Hub) register(connID, userID string) *client {
	c := &client{id: connID, userID: userID, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		close(c.send)
	}
}

// identify binds a user to a connection that connected anonymously.
func (h *Hub) identify(connID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok && c.userID == "" {
		c.userID = userID
	}
}

func (h *Hub) EmitToAll(event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		deliver(c, msg)
	}
}

func (h *Hub) EmitToOne(connID, event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		deliver(c, msg)
	}
}

// Participants counts distinct identified users currently connected.
func (h *Hub) Participants() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make(map[string]struct{}, len(h.clients))
	for _, c := range h.clients {
		if c.userID != "" {
			users[c.userID] = struct{}{}
		}
	}
	return len(users)
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(event string, payload any) ([]byte, bool) {
	msg, err := json.Marshal(outboundMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("encode %s: %v", event, err)
		return nil, false
	}
	return msg, true
}

func deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
		return
	default:
	}
	// slow client: drop the oldest frame and retry once
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- msg:
	default:
		log.Printf("dropping frame for connection %s", c.id)
	}
}
