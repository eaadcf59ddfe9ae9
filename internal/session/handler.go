package session

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"inkwell/internal/canvas"
	"inkwell/internal/metrics"
	"inkwell/internal/protocol"
	"inkwell/internal/room"
	"inkwell/internal/store"
)

// DefaultRoom is joined when a client asks for no room in particular.
const DefaultRoom = "default"

// Sender is the outbound half of the transport contract: delivery-group
// membership, unicast, room multicast excluding the sender, and room
// multicast including everyone. Membership lives in the contract so the
// handler can order it against the frames it emits: a joiner is moved into
// the room's delivery group before its state snapshot is taken, which means
// every room frame after that snapshot reaches it. The websocket hub
// implements it; tests use a recording fake.
type Sender interface {
	SetRoom(clientID, roomID string)
	SendToClient(clientID, event string, payload any)
	BroadcastToRoom(roomID, excludeID, event string, payload any)
	BroadcastToAll(roomID, event string, payload any)
}

// Conn is the per-connection protocol state: which client this is and which
// room it has joined, if any.
type Conn struct {
	ID     string
	roomID string
	joined bool
}

func NewConn(id string) *Conn {
	return &Conn{ID: id}
}

// RoomID returns the joined room, or "" before join.
func (c *Conn) RoomID() string {
	if !c.joined {
		return ""
	}
	return c.roomID
}

// Handler translates inbound events into registry/ledger/tracker operations
// and computes the outbound fan-out. Every handler is defensive: events
// referencing state that does not exist are dropped silently, never fatal to
// the connection.
type Handler struct {
	registry *room.Registry
	sender   Sender
	sessions *store.Store // optional session log
	stats    *metrics.Metrics
	log      *zap.Logger
}

func NewHandler(registry *room.Registry, sender Sender, sessions *store.Store, stats *metrics.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if stats == nil {
		stats = metrics.New(prometheus.NewRegistry())
	}
	return &Handler{
		registry: registry,
		sender:   sender,
		sessions: sessions,
		stats:    stats,
		log:      log,
	}
}

// HandleMessage dispatches one inbound frame. Malformed frames and unknown
// events are protocol noise and are dropped.
func (h *Handler) HandleMessage(c *Conn, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		h.drop(c, "malformed frame", err)
		return
	}

	if env.Event == protocol.EventJoinRoom {
		var p protocol.JoinRoom
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &p); err != nil {
				h.drop(c, "bad join-room payload", err)
				return
			}
		}
		h.HandleJoin(c, p.RoomID)
		return
	}

	// Everything else requires a joined connection.
	if !c.joined {
		h.drop(c, "event before join-room", nil)
		return
	}

	switch env.Event {
	case protocol.EventDrawStart:
		var p protocol.DrawStart
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.drop(c, "bad draw-start payload", err)
			return
		}
		h.handleDrawStart(c, p)

	case protocol.EventDraw:
		var p protocol.Draw
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.drop(c, "bad draw payload", err)
			return
		}
		h.handleDraw(c, p)

	case protocol.EventDrawEnd:
		h.handleDrawEnd(c)

	case protocol.EventUndo:
		h.handleUndo(c)

	case protocol.EventRedo:
		h.handleRedo(c)

	case protocol.EventCursorMove:
		var p protocol.CursorMove
		if err := json.Unmarshal(env.Data, &p); err != nil {
			h.drop(c, "bad cursor-move payload", err)
			return
		}
		h.handleCursorMove(c, p)

	default:
		h.drop(c, "unknown event", nil)
	}
}

// HandleJoin puts the connection into a room, creating it if needed. Exposed
// so the transport can auto-join a room named in the connection URL.
func (h *Handler) HandleJoin(c *Conn, roomID string) {
	if roomID == "" {
		roomID = DefaultRoom
	}

	// Re-sending join-room for the current room is a state resend, not a
	// re-registration: same color, no duplicate user-connected.
	if c.joined && c.roomID == roomID {
		if r, ok := h.registry.Get(roomID); ok {
			if user, ok := r.User(c.ID); ok {
				h.sender.SendToClient(c.ID, protocol.EventStateSync, protocol.StateSync{
					Strokes:    r.Snapshot(),
					Users:      r.Users(),
					YourUserID: c.ID,
					YourColor:  user.Color,
				})
				return
			}
		}
	}

	// A join while already in a room is an implicit leave first; a
	// connection is in at most one room.
	if c.joined && c.roomID != roomID {
		h.leaveRoom(c)
	}

	r, user, color, created := h.registry.Join(roomID, c.ID)
	if created && h.sessions != nil {
		if err := h.sessions.RoomOpened(roomID); err != nil {
			h.log.Warn("session log write failed", zap.Error(err))
		}
	}

	c.roomID = roomID
	c.joined = true

	h.log.Info("user joined room",
		zap.String("user", c.ID),
		zap.String("room", roomID),
		zap.String("color", color))

	// Membership precedes the snapshot: anything committed before the
	// snapshot is in it, anything broadcast after it is delivered.
	h.sender.SetRoom(c.ID, roomID)
	h.sender.SendToClient(c.ID, protocol.EventStateSync, protocol.StateSync{
		Strokes:    r.Snapshot(),
		Users:      r.Users(),
		YourUserID: c.ID,
		YourColor:  color,
	})
	h.sender.BroadcastToRoom(roomID, c.ID, protocol.EventUserConnected, protocol.UserConnected{
		UserID:      user.ID,
		Color:       color,
		OnlineCount: r.UserCount(),
	})

	h.updateGauges()
}

func (h *Handler) handleDrawStart(c *Conn, p protocol.DrawStart) {
	r, ok := h.registry.Get(c.roomID)
	if !ok {
		h.drop(c, "draw-start for unknown room", nil)
		return
	}

	s := r.StartStroke(c.ID, canvas.Tool(p.Tool), p.Color, p.StrokeWidth, canvas.Point{X: p.X, Y: p.Y})
	if s == nil {
		h.drop(c, "draw-start from unknown participant", nil)
		return
	}

	h.sender.BroadcastToRoom(c.roomID, c.ID, protocol.EventStrokeStart, protocol.StrokeStart{
		StrokeID:    s.ID,
		UserID:      c.ID,
		Tool:        p.Tool,
		Color:       p.Color,
		StrokeWidth: p.StrokeWidth,
		X:           p.X,
		Y:           p.Y,
	})
}

func (h *Handler) handleDraw(c *Conn, p protocol.Draw) {
	r, ok := h.registry.Get(c.roomID)
	if !ok {
		return
	}

	strokeID := r.AddPoint(c.ID, canvas.Point{X: p.X, Y: p.Y})
	if strokeID == "" {
		// Stray point with no stroke in flight: no mutation, no broadcast.
		h.stats.DroppedMessages.Inc()
		return
	}

	h.sender.BroadcastToRoom(c.roomID, c.ID, protocol.EventStrokeDraw, protocol.StrokeDraw{
		StrokeID: strokeID,
		X:        p.X,
		Y:        p.Y,
	})
}

func (h *Handler) handleDrawEnd(c *Conn) {
	r, ok := h.registry.Get(c.roomID)
	if !ok {
		return
	}

	s := r.EndStroke(c.ID)
	if s == nil {
		h.stats.DroppedMessages.Inc()
		return
	}
	h.stats.StrokesCommitted.Inc()

	h.sender.BroadcastToRoom(c.roomID, c.ID, protocol.EventStrokeEnd, protocol.StrokeEnd{
		StrokeID: s.ID,
	})
}

func (h *Handler) handleUndo(c *Conn) {
	r, ok := h.registry.Get(c.roomID)
	if !ok {
		return
	}

	s := r.Undo()
	if s == nil {
		return
	}
	h.stats.Undos.Inc()

	h.log.Info("stroke undone",
		zap.String("user", c.ID),
		zap.String("room", c.roomID),
		zap.String("stroke", s.ID))

	h.sender.BroadcastToAll(c.roomID, protocol.EventCanvasUpdate, protocol.CanvasUpdate{
		Type:           protocol.UpdateUndo,
		Strokes:        r.Snapshot(),
		UndoneStrokeID: s.ID,
	})
}

func (h *Handler) handleRedo(c *Conn) {
	r, ok := h.registry.Get(c.roomID)
	if !ok {
		return
	}

	s := r.Redo()
	if s == nil {
		return
	}
	h.stats.Redos.Inc()

	h.log.Info("stroke redone",
		zap.String("user", c.ID),
		zap.String("room", c.roomID),
		zap.String("stroke", s.ID))

	h.sender.BroadcastToAll(c.roomID, protocol.EventCanvasUpdate, protocol.CanvasUpdate{
		Type:         protocol.UpdateRedo,
		Strokes:      r.Snapshot(),
		RedoneStroke: s,
	})
}

func (h *Handler) handleCursorMove(c *Conn, p protocol.CursorMove) {
	r, ok := h.registry.Get(c.roomID)
	if !ok {
		return
	}

	color, ok := r.MoveCursor(c.ID, p.X, p.Y)
	if !ok {
		return
	}

	h.sender.BroadcastToRoom(c.roomID, c.ID, protocol.EventCursor, protocol.Cursor{
		UserID:    c.ID,
		X:         p.X,
		Y:         p.Y,
		UserColor: color,
	})
}

// HandleDisconnect tears the connection down: any in-flight stroke is
// abandoned (never committed), the participant leaves its room, and the room
// is told. Safe to call for connections that never joined.
func (h *Handler) HandleDisconnect(c *Conn) {
	if !c.joined {
		return
	}
	h.leaveRoom(c)
	h.updateGauges()
}

func (h *Handler) leaveRoom(c *Conn) {
	roomID := c.roomID
	remaining, closed := h.registry.Leave(roomID, c.ID)
	c.joined = false
	c.roomID = ""

	h.log.Info("user left room",
		zap.String("user", c.ID),
		zap.String("room", roomID),
		zap.Int("remaining", remaining))

	if closed != nil && h.sessions != nil {
		if err := h.sessions.RoomClosed(closed.RoomID, closed.StrokeTotal, closed.PeakUsers); err != nil {
			h.log.Warn("session log write failed", zap.Error(err))
		}
	}

	h.sender.BroadcastToRoom(roomID, c.ID, protocol.EventUserDisconnected, protocol.UserDisconnected{
		UserID:      c.ID,
		OnlineCount: remaining,
	})
	h.sender.SetRoom(c.ID, "")
}

func (h *Handler) drop(c *Conn, reason string, err error) {
	h.stats.DroppedMessages.Inc()
	h.log.Debug("message dropped",
		zap.String("user", c.ID),
		zap.String("reason", reason),
		zap.Error(err))
}

func (h *Handler) updateGauges() {
	h.stats.ActiveRooms.Set(float64(h.registry.RoomCount()))
	h.stats.ConnectedClients.Set(float64(h.registry.ClientCount()))
}
