package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStartAndFinish(t *testing.T) {
	tr := NewTracker()

	s := tr.Start("user-1", ToolBrush, "#000000", 2, Point{X: 0, Y: 0})
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "user-1", s.UserID)
	assert.True(t, tr.InFlight("user-1"))

	id := tr.AddPoint("user-1", Point{X: 10, Y: 10})
	assert.Equal(t, s.ID, id)

	done := tr.Finish("user-1")
	require.NotNil(t, done)
	assert.Equal(t, s.ID, done.ID)
	require.Len(t, done.Points, 2)
	assert.Equal(t, Point{X: 0, Y: 0}, done.Points[0])
	assert.Equal(t, Point{X: 10, Y: 10}, done.Points[1])

	assert.False(t, tr.InFlight("user-1"))
	assert.Equal(t, 0, tr.Len())
}

func TestTrackerStrayPointIgnored(t *testing.T) {
	tr := NewTracker()

	assert.Equal(t, "", tr.AddPoint("user-1", Point{X: 1, Y: 1}))
	assert.Equal(t, 0, tr.Len())
}

func TestTrackerFinishWithNothingInFlight(t *testing.T) {
	tr := NewTracker()

	assert.Nil(t, tr.Finish("user-1"))
}

func TestTrackerStartOverwritesPriorStroke(t *testing.T) {
	tr := NewTracker()

	first := tr.Start("user-1", ToolBrush, "#000000", 2, Point{X: 0, Y: 0})
	second := tr.Start("user-1", ToolEraser, "#ffffff", 8, Point{X: 5, Y: 5})

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, tr.Len())

	done := tr.Finish("user-1")
	require.NotNil(t, done)
	assert.Equal(t, second.ID, done.ID)
	assert.Equal(t, ToolEraser, done.Tool)
}

func TestTrackerAbandon(t *testing.T) {
	tr := NewTracker()

	tr.Start("user-1", ToolBrush, "#000000", 2, Point{X: 0, Y: 0})
	tr.Abandon("user-1")

	assert.False(t, tr.InFlight("user-1"))
	assert.Nil(t, tr.Finish("user-1"))
	assert.Equal(t, 0, tr.Len())

	// Abandon with nothing in flight is a no-op.
	tr.Abandon("user-1")
}

func TestTrackerIndependentOwners(t *testing.T) {
	tr := NewTracker()

	a := tr.Start("alice", ToolBrush, "#111111", 2, Point{X: 0, Y: 0})
	b := tr.Start("bob", ToolBrush, "#222222", 4, Point{X: 1, Y: 1})

	assert.Equal(t, a.ID, tr.AddPoint("alice", Point{X: 2, Y: 2}))
	assert.Equal(t, b.ID, tr.AddPoint("bob", Point{X: 3, Y: 3}))

	doneA := tr.Finish("alice")
	require.NotNil(t, doneA)
	assert.Equal(t, a.ID, doneA.ID)
	assert.True(t, tr.InFlight("bob"))
}
