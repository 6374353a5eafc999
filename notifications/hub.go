package notifications

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub keeps websocket connections grouped by room and pushes events to every
// connection in the recipient's room.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*websocket.Conn]bool)}
}

func (h *Hub) Join(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[room]
	if !ok {
		conns = make(map[*websocket.Conn]bool)
		h.rooms[room] = conns
	}
	conns[conn] = true
}

func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, conn)
}

func (h *Hub) removeLocked(room string, conn *websocket.Conn) {
	conns, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.rooms, room)
	}
}

// Connections returns how many sockets are joined to room.
func (h *Hub) Connections(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// Deliver writes e to the recipient's room. A recipient without open
// connections is not an error; broken connections are closed and dropped.
func (h *Hub) Deliver(_ context.Context, e Event) error {
	room := e.Room()
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.rooms[room] {
		if err := conn.WriteJSON(e); err != nil {
			log.Printf("[notify] dropping connection in %s: %v", room, err)
			conn.Close()
			h.removeLocked(room, conn)
		}
	}
	return nil
}
