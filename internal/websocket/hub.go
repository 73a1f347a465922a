package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/metrics"
)

// Hub holds the clients of this process, grouped by room.
type Hub struct {
	rooms map[uint]map[uuid.UUID]*Client
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]map[uuid.UUID]*Client)}
}

// Join adds the client to the room and reports whether it is the first local one.
func (h *Hub) Join(roomID uint, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		clients = make(map[uuid.UUID]*Client)
		h.rooms[roomID] = clients
	}
	clients[client.ID] = client

	return !ok
}

// Leave removes the client and reports whether the room has no local clients left.
// Leaving a room the client is not in reports false.
func (h *Hub) Leave(roomID uint, client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := clients[client.ID]; !ok {
		return false
	}

	delete(clients, client.ID)
	if len(clients) == 0 {
		delete(h.rooms, roomID)
		return true
	}
	return false
}

// Deliver queues data on every local client of the room. A full or closed
// client is skipped so one slow reader never holds up the rest.
func (h *Hub) Deliver(roomID uint, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, client := range h.rooms[roomID] {
		if err := client.Send(data); err != nil {
			metrics.FanoutDropped.Inc()
			log.L().Warn().Err(err).
				Str(log.FieldClientID, client.ID.String()).
				Uint(log.FieldRoomID, roomID).
				Msg("dropping frame for client")
			continue
		}
		delivered++
	}
	return delivered
}

// RoomClients returns the number of local clients subscribed to the room.
func (h *Hub) RoomClients(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// CloseAll ends every local session and returns how many were closed. Clients
// are collected first because Close re-enters the hub through Leave.
func (h *Hub) CloseAll() int {
	h.mu.RLock()
	clients := make([]*Client, 0)
	for _, room := range h.rooms {
		for _, client := range room {
			clients = append(clients, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
	return len(clients)
}
