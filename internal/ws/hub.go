package ws

import (
	"sync"

	"go.uber.org/zap"

	"inkwell/internal/protocol"
)

// Hub tracks connected clients and which room each one is in, and delivers
// outbound frames. It implements session.Sender: room membership, unicast,
// room broadcast minus one client, and room broadcast to everyone.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // clientID -> client
	rooms   map[string]map[string]*Client // roomID -> clientID -> client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		log:     log,
	}
}

// Register adds a connected client, not yet in any room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// Unregister drops a client and closes its send channel. Idempotent.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c.id)
}

func (h *Hub) dropLocked(clientID string) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	h.removeFromRoomLocked(c)
	close(c.send)
}

// SetRoom moves a client into roomID's delivery group; "" removes it from
// any group.
func (h *Hub) SetRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	h.removeFromRoomLocked(c)

	if roomID == "" {
		return
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][clientID] = c
	c.roomID = roomID
}

func (h *Hub) removeFromRoomLocked(c *Client) {
	if c.roomID == "" {
		return
	}
	if clients, ok := h.rooms[c.roomID]; ok {
		delete(clients, c.id)
		if len(clients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	c.roomID = ""
}

// SendToClient delivers one frame to one client.
func (h *Hub) SendToClient(clientID, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		h.log.Error("encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		h.deliverLocked(c, frame)
	}
}

// BroadcastToRoom delivers a frame to every client in the room except
// excludeID.
func (h *Hub) BroadcastToRoom(roomID, excludeID, event string, payload any) {
	h.broadcast(roomID, excludeID, event, payload)
}

// BroadcastToAll delivers a frame to every client in the room, the
// originator included.
func (h *Hub) BroadcastToAll(roomID, event string, payload any) {
	h.broadcast(roomID, "", event, payload)
}

func (h *Hub) broadcast(roomID, excludeID, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		h.log.Error("encode failed", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.rooms[roomID] {
		if id == excludeID {
			continue
		}
		h.deliverLocked(c, frame)
	}
}

// deliverLocked enqueues a frame; a client whose send buffer is full is
// dropped rather than allowed to stall the room.
func (h *Hub) deliverLocked(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.log.Warn("send buffer full, dropping client", zap.String("client", c.id))
		h.dropLocked(c.id)
	}
}

// ClientCount returns the number of registered websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
