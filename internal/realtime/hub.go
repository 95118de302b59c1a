package realtime

import (
	"encoding/json"
	"sync"
)

// Hub fans analysis events out to every connected websocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

type Client struct {
	Send chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: map[*Client]struct{}{}}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.Broadcast(map[string]any{"type": "presence.update", "clients": count})
}

// Unregister is safe to call from both pumps; only the first call closes Send.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.Send)
	count := len(h.clients)
	h.mu.Unlock()
	h.Broadcast(map[string]any{"type": "presence.update", "clients": count})
}

func (h *Hub) Broadcast(payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
