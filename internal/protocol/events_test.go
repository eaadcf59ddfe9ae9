package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"event":"draw-start","data":{"x":1,"y":2,"tool":"brush","color":"#000","strokeWidth":2}}`))
	require.NoError(t, err)
	assert.Equal(t, EventDrawStart, env.Event)

	var ds DrawStart
	require.NoError(t, json.Unmarshal(env.Data, &ds))
	assert.Equal(t, 1.0, ds.X)
	assert.Equal(t, 2.0, ds.Y)
	assert.Equal(t, "brush", ds.Tool)
}

func TestDecodeEnvelopeNoData(t *testing.T) {
	env, err := Decode([]byte(`{"event":"undo"}`))
	require.NoError(t, err)
	assert.Equal(t, EventUndo, env.Event)
	assert.Empty(t, env.Data)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err, "envelope without an event name")
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := Encode(EventStrokeEnd, StrokeEnd{StrokeID: "s1"})
	require.NoError(t, err)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, EventStrokeEnd, env.Event)

	var se StrokeEnd
	require.NoError(t, json.Unmarshal(env.Data, &se))
	assert.Equal(t, "s1", se.StrokeID)
}
