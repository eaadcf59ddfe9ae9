package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/protocol"
)

func newTestClient(id string) *Client {
	return &Client{
		id:   id,
		send: make(chan []byte, 16),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-c.send:
			out = append(out, frame)
		default:
			return out
		}
	}
}

func decodeEvent(t *testing.T, frame []byte) string {
	t.Helper()

	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env.Event
}

func TestHubSendToClient(t *testing.T) {
	hub := NewHub(nil)
	c := newTestClient("alice")
	hub.Register(c)

	hub.SendToClient("alice", protocol.EventStrokeEnd, protocol.StrokeEnd{StrokeID: "s1"})
	hub.SendToClient("ghost", protocol.EventStrokeEnd, protocol.StrokeEnd{StrokeID: "s1"})

	frames := drain(c)
	require.Len(t, frames, 1)
	assert.Equal(t, protocol.EventStrokeEnd, decodeEvent(t, frames[0]))
}

func TestHubRoomBroadcastExcludesSender(t *testing.T) {
	hub := NewHub(nil)
	a := newTestClient("alice")
	b := newTestClient("bob")
	c := newTestClient("carol")
	for _, cl := range []*Client{a, b, c} {
		hub.Register(cl)
	}
	hub.SetRoom("alice", "r1")
	hub.SetRoom("bob", "r1")
	hub.SetRoom("carol", "r2")

	hub.BroadcastToRoom("r1", "alice", protocol.EventCursor, protocol.Cursor{UserID: "alice"})

	assert.Empty(t, drain(a))
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(c), "other rooms must not receive the frame")
}

func TestHubBroadcastToAllIncludesEveryone(t *testing.T) {
	hub := NewHub(nil)
	a := newTestClient("alice")
	b := newTestClient("bob")
	hub.Register(a)
	hub.Register(b)
	hub.SetRoom("alice", "r1")
	hub.SetRoom("bob", "r1")

	hub.BroadcastToAll("r1", protocol.EventCanvasUpdate, protocol.CanvasUpdate{Type: protocol.UpdateUndo})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestHubSetRoomMovesClient(t *testing.T) {
	hub := NewHub(nil)
	a := newTestClient("alice")
	hub.Register(a)

	hub.SetRoom("alice", "r1")
	hub.SetRoom("alice", "r2")

	hub.BroadcastToAll("r1", protocol.EventStrokeEnd, protocol.StrokeEnd{})
	assert.Empty(t, drain(a))

	hub.BroadcastToAll("r2", protocol.EventStrokeEnd, protocol.StrokeEnd{})
	assert.Len(t, drain(a), 1)
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	a := newTestClient("alice")
	hub.Register(a)
	hub.SetRoom("alice", "r1")

	hub.Unregister(a)
	hub.Unregister(a)

	assert.Equal(t, 0, hub.ClientCount())
	// Sends to a gone client are a no-op.
	hub.BroadcastToAll("r1", protocol.EventStrokeEnd, protocol.StrokeEnd{})
}

func TestHubFullSendBufferDropsClient(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{id: "slow", send: make(chan []byte)} // unbuffered, never read
	hub.Register(slow)
	hub.SetRoom("slow", "r1")

	hub.BroadcastToAll("r1", protocol.EventStrokeEnd, protocol.StrokeEnd{})

	assert.Equal(t, 0, hub.ClientCount())
}
