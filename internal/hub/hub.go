package hub

import (
	"encoding/json"
	"sync"
)

// Event represents a real-time friendship event to be sent to a user.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single client connection (one user's event stream).
// It's essentially a channel that the SSE handler will listen to.
type Client chan []byte

// Hub fans friendship events out to each user's connected clients.
type Hub struct {
	users map[uint]map[Client]bool
	mu    sync.RWMutex
}

// GlobalHub is the singleton instance of our Hub.
var GlobalHub = NewHub()

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[Client]bool),
	}
}

// Subscribe adds a new client for a specific user.
func (h *Hub) Subscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[Client]bool)
	}
	h.users[userID][client] = true
}

// Unsubscribe removes a client from a user's stream.
func (h *Hub) Unsubscribe(userID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.users, userID)
			}
		}
	}
}

// Notify sends an event to every client connected as the given user. It
// satisfies the relationship service's Notifier contract.
func (h *Hub) Notify(userID uint, event string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.users[userID]
	if !ok {
		return
	}

	messageBytes, err := json.Marshal(Event{Type: event, Payload: payload})
	if err != nil {
		return
	}

	for client := range clients {
		// Non-blocking send so a slow client never blocks the hub.
		select {
		case client <- messageBytes:
		default:
			// Client channel is full; the unsubscribe path cleans it up.
		}
	}
}
