package room

import (
	"sync"

	"go.uber.org/zap"
)

// RoomStats is the read-only view served by the dashboard API.
type RoomStats struct {
	RoomID      string `json:"roomId"`
	UserCount   int    `json:"userCount"`
	StrokeCount int    `json:"strokeCount"`
	Users       []User `json:"users"`
}

// ClosedRoom summarizes a room that was just torn down, for the session log.
type ClosedRoom struct {
	RoomID      string
	StrokeTotal int
	PeakUsers   int
}

// Registry owns the set of live rooms. Rooms are created lazily on first
// join and discarded, history included, the moment the last participant
// leaves. The registry is injected wherever room access is needed; nothing
// reaches rooms through package globals.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	log   *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		rooms: make(map[string]*Room),
		log:   log,
	}
}

// Resolve returns the room for roomID, creating an empty one if needed.
// created reports whether this call brought the room into existence.
func (reg *Registry) Resolve(roomID string) (r *Room, created bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.resolveLocked(roomID)
}

func (reg *Registry) resolveLocked(roomID string) (r *Room, created bool) {
	r, ok := reg.rooms[roomID]
	if !ok {
		r = NewRoom(roomID)
		reg.rooms[roomID] = r
		reg.log.Info("room created", zap.String("room", roomID))
		created = true
	}
	return r, created
}

// Join resolves the room (creating it if needed) and registers the
// participant with a freshly assigned color. Lookup and registration happen
// under one registry critical section so a concurrent Leave cannot discard
// the room between the two; once Join returns, the room stays live until
// this participant leaves.
func (reg *Registry) Join(roomID, userID string) (r *Room, user User, color string, created bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, created = reg.resolveLocked(roomID)
	user, color = r.Join(userID)
	return r, user, color, created
}

// Get returns an existing room without creating one.
func (reg *Registry) Get(roomID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[roomID]
	return r, ok
}

// Leave removes a participant from a room. When the last participant goes,
// the room and all of its state are discarded and a summary of the closed
// session is returned. remaining is the participant count after removal.
func (reg *Registry) Leave(roomID, userID string) (remaining int, closed *ClosedRoom) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return 0, nil
	}

	remaining = r.Leave(userID)
	if remaining == 0 {
		strokes, peak := r.Totals()
		delete(reg.rooms, roomID)
		reg.log.Info("room closed",
			zap.String("room", roomID),
			zap.Int("strokes", strokes),
			zap.Int("peak_users", peak))
		closed = &ClosedRoom{RoomID: roomID, StrokeTotal: strokes, PeakUsers: peak}
	}
	return remaining, closed
}

// IsActive reports whether roomID exists and has at least one participant.
func (reg *Registry) IsActive(roomID string) bool {
	reg.mu.RLock()
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	return ok && r.UserCount() > 0
}

// ActiveRooms returns the ids of every live room.
func (reg *Registry) ActiveRooms() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Stats returns the dashboard view of a room. ok is false for unknown rooms;
// a miss is a lookup result, not an error.
func (reg *Registry) Stats(roomID string) (*RoomStats, bool) {
	reg.mu.RLock()
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	if !ok {
		return nil, false
	}

	return &RoomStats{
		RoomID:      roomID,
		UserCount:   r.UserCount(),
		StrokeCount: r.StrokeCount(),
		Users:       r.Users(),
	}, true
}

// RoomCount returns the number of live rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// ClientCount returns the number of participants across all rooms.
func (reg *Registry) ClientCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	total := 0
	for _, r := range reg.rooms {
		total += r.UserCount()
	}
	return total
}
