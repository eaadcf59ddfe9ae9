package room

import (
	"sync"

	"inkwell/internal/canvas"
)

// Participant is one connected client inside one room.
type Participant struct {
	ID      string
	Color   string
	CursorX float64
	CursorY float64

	// id of the in-flight stroke, "" when idle
	drawing string
}

// User is the wire view of a participant, as sent in state-sync and the
// room stats endpoints.
type User struct {
	ID        string  `json:"id"`
	Color     string  `json:"color"`
	CursorX   float64 `json:"cursorX"`
	CursorY   float64 `json:"cursorY"`
	IsDrawing bool    `json:"isDrawing"`
}

// Room is the isolation boundary for one drawing session: its participants,
// committed history and in-flight strokes. All state sits behind one mutex,
// so every operation on a room is serialized; distinct rooms share nothing
// and run fully concurrently.
type Room struct {
	ID string

	mu           sync.Mutex
	participants map[string]*Participant
	ledger       *canvas.Ledger
	tracker      *canvas.Tracker

	peakUsers   int
	strokeTotal int // lifetime commits, kept for the session log
}

func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		participants: make(map[string]*Participant),
		ledger:       canvas.NewLedger(),
		tracker:      canvas.NewTracker(),
	}
}

// Join registers a participant and assigns it a palette color distinct from
// the colors already in use in this room.
func (r *Room) Join(userID string) (User, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		used = append(used, p.Color)
	}
	color := canvas.AssignColor(used)

	p := &Participant{ID: userID, Color: color}
	r.participants[userID] = p
	if len(r.participants) > r.peakUsers {
		r.peakUsers = len(r.participants)
	}

	return userView(p), color
}

// Leave removes a participant, discarding any stroke it still had in flight,
// and returns the number of participants left.
func (r *Room) Leave(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Abandon(userID)
	delete(r.participants, userID)
	return len(r.participants)
}

// StartStroke opens a new in-flight stroke for userID. Returns nil when the
// participant is not in the room.
func (r *Room) StartStroke(userID string, tool canvas.Tool, color string, width float64, first canvas.Point) *canvas.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[userID]
	if !ok {
		return nil
	}
	s := r.tracker.Start(userID, tool, color, width, first)
	p.drawing = s.ID
	return s
}

// AddPoint appends a point to userID's in-flight stroke and returns its id,
// or "" when nothing is in flight.
func (r *Room) AddPoint(userID string, pt canvas.Point) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.tracker.AddPoint(userID, pt)
}

// EndStroke commits userID's in-flight stroke to the ledger and returns it,
// or nil when nothing was in flight.
func (r *Room) EndStroke(userID string) *canvas.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.tracker.Finish(userID)
	if s == nil {
		return nil
	}
	r.ledger.Commit(*s)
	r.strokeTotal++
	if p, ok := r.participants[userID]; ok {
		p.drawing = ""
	}
	return s
}

func (r *Room) Undo() *canvas.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Undo()
}

func (r *Room) Redo() *canvas.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Redo()
}

// Snapshot returns a copy of the committed history.
func (r *Room) Snapshot() []canvas.Stroke {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Snapshot()
}

// MoveCursor updates userID's cursor and returns its color. ok is false for
// unknown participants.
func (r *Room) MoveCursor(userID string, x, y float64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[userID]
	if !ok {
		return "", false
	}
	p.CursorX = x
	p.CursorY = y
	return p.Color, true
}

// Users returns the wire view of every participant.
func (r *Room) Users() []User {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]User, 0, len(r.participants))
	for _, p := range r.participants {
		users = append(users, userView(p))
	}
	return users
}

// User returns the wire view of one participant.
func (r *Room) User(userID string) (User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[userID]
	if !ok {
		return User{}, false
	}
	return userView(p), true
}

func (r *Room) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// StrokeCount returns the number of strokes currently in the history.
func (r *Room) StrokeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Len()
}

// Totals reports lifetime committed strokes and peak concurrent users, for
// the session log when the room closes.
func (r *Room) Totals() (strokes, peakUsers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.strokeTotal, r.peakUsers
}

func userView(p *Participant) User {
	return User{
		ID:        p.ID,
		Color:     p.Color,
		CursorX:   p.CursorX,
		CursorY:   p.CursorY,
		IsDrawing: p.drawing != "",
	}
}
