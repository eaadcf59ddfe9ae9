package protocol

import (
	"encoding/json"
	"fmt"

	"inkwell/internal/canvas"
	"inkwell/internal/room"
)

// Event names, both directions. Every frame on the wire is a JSON envelope
// {"event": name, "data": payload}.
const (
	// inbound
	EventJoinRoom   = "join-room"
	EventDrawStart  = "draw-start"
	EventDraw       = "draw"
	EventDrawEnd    = "draw-end"
	EventUndo       = "undo"
	EventRedo       = "redo"
	EventCursorMove = "cursor-move"

	// outbound
	EventStateSync        = "state-sync"
	EventStrokeStart      = "stroke-start"
	EventStrokeDraw       = "stroke-draw"
	EventStrokeEnd        = "stroke-end"
	EventCanvasUpdate     = "canvas-update"
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
	EventCursor           = "cursor"
)

// History change kinds carried by canvas-update.
const (
	UpdateUndo = "undo"
	UpdateRedo = "redo"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode parses a raw frame into its envelope.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("decode envelope: missing event")
	}
	return &env, nil
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Inbound payloads.

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type DrawStart struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Tool        string  `json:"tool"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type Draw struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CursorMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outbound payloads.

// StateSync carries the full room state to a joining participant.
type StateSync struct {
	Strokes    []canvas.Stroke `json:"strokes"`
	Users      []room.User     `json:"users"`
	YourUserID string          `json:"yourUserId"`
	YourColor  string          `json:"yourColor"`
}

type StrokeStart struct {
	StrokeID    string  `json:"strokeId"`
	UserID      string  `json:"userId"`
	Tool        string  `json:"tool"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type StrokeDraw struct {
	StrokeID string  `json:"strokeId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type StrokeEnd struct {
	StrokeID string `json:"strokeId"`
}

// CanvasUpdate announces an undo or redo to the whole room, carrying the
// full post-change history so every client re-converges on it.
type CanvasUpdate struct {
	Type           string          `json:"type"`
	Strokes        []canvas.Stroke `json:"strokes"`
	UndoneStrokeID string          `json:"undoneStrokeId,omitempty"`
	RedoneStroke   *canvas.Stroke  `json:"redoneStroke,omitempty"`
}

type UserConnected struct {
	UserID      string `json:"userId"`
	Color       string `json:"color"`
	OnlineCount int    `json:"onlineCount"`
}

type UserDisconnected struct {
	UserID      string `json:"userId"`
	OnlineCount int    `json:"onlineCount"`
}

type Cursor struct {
	UserID    string  `json:"userId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	UserColor string  `json:"userColor"`
}
