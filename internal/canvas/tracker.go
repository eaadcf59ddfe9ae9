package canvas

import (
	"time"

	"github.com/google/uuid"
)

// Tracker holds strokes that are still being drawn. Each stroke is reachable
// by its id and by its owner, and a participant has at most one stroke in
// flight; the owner index makes that invariant structural.
//
// Not safe for concurrent use; the owning room serializes access.
type Tracker struct {
	strokes map[string]*Stroke // strokeID -> stroke
	byOwner map[string]string  // userID -> strokeID
}

func NewTracker() *Tracker {
	return &Tracker{
		strokes: make(map[string]*Stroke),
		byOwner: make(map[string]string),
	}
}

// Start opens a new in-flight stroke for userID and returns it. If the
// participant already had a stroke in flight it is abandoned: the new stroke
// wins and the old one is never committed.
func (t *Tracker) Start(userID string, tool Tool, color string, width float64, first Point) *Stroke {
	if prev, ok := t.byOwner[userID]; ok {
		delete(t.strokes, prev)
	}

	s := &Stroke{
		ID:          uuid.New().String(),
		UserID:      userID,
		Tool:        tool,
		Color:       color,
		StrokeWidth: width,
		Points:      []Point{first},
		Timestamp:   time.Now().UnixMilli(),
	}
	t.strokes[s.ID] = s
	t.byOwner[userID] = s.ID
	return s
}

// AddPoint appends a point to userID's in-flight stroke and returns the
// stroke id. Returns "" when the participant has nothing in flight, e.g. a
// stray point after draw-end; the caller drops such events silently.
func (t *Tracker) AddPoint(userID string, p Point) string {
	id, ok := t.byOwner[userID]
	if !ok {
		return ""
	}
	s := t.strokes[id]
	s.Points = append(s.Points, p)
	return id
}

// Finish removes and returns userID's in-flight stroke for commitment, or
// nil when there is none.
func (t *Tracker) Finish(userID string) *Stroke {
	id, ok := t.byOwner[userID]
	if !ok {
		return nil
	}
	s := t.strokes[id]
	delete(t.strokes, id)
	delete(t.byOwner, userID)
	return s
}

// Abandon discards userID's in-flight stroke without committing it. Used on
// disconnect.
func (t *Tracker) Abandon(userID string) {
	if id, ok := t.byOwner[userID]; ok {
		delete(t.strokes, id)
		delete(t.byOwner, userID)
	}
}

// InFlight reports whether userID currently has a stroke in flight.
func (t *Tracker) InFlight(userID string) bool {
	_, ok := t.byOwner[userID]
	return ok
}

func (t *Tracker) Len() int {
	return len(t.strokes)
}
