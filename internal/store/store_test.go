package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "inkwell-store-test-*")
	require.NoError(t, err)

	s, err := New(filepath.Join(tmpDir, "sessions.db"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
		os.RemoveAll(tmpDir)
	})
	return s
}

func TestStoreSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.RoomOpened("r1"))
	require.NoError(t, s.RoomClosed("r1", 7, 3))

	sessions, err := s.RecentSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "r1", sessions[0].RoomID)
	assert.Equal(t, 7, sessions[0].StrokeTotal)
	assert.Equal(t, 3, sessions[0].PeakUsers)
	assert.NotNil(t, sessions[0].ClosedAt)
}

func TestStoreOpenSessionsNotListed(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.RoomOpened("r1"))

	sessions, err := s.RecentSessions(10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStoreClosesLatestOpenSession(t *testing.T) {
	s := setupTestStore(t)

	// Two back-to-back sessions of the same room id.
	require.NoError(t, s.RoomOpened("r1"))
	require.NoError(t, s.RoomClosed("r1", 1, 1))
	require.NoError(t, s.RoomOpened("r1"))
	require.NoError(t, s.RoomClosed("r1", 2, 2))

	sessions, err := s.RecentSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 2, sessions[0].StrokeTotal)
	assert.Equal(t, 1, sessions[1].StrokeTotal)
}

func TestStoreTotals(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.RoomOpened("r1"))
	require.NoError(t, s.RoomClosed("r1", 5, 2))
	require.NoError(t, s.RoomOpened("r2"))

	sessions, strokes, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 2, sessions)
	assert.Equal(t, 5, strokes)
}

func TestStorePrune(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RoomOpened("r1"))
		require.NoError(t, s.RoomClosed("r1", i, 1))
	}
	require.NoError(t, s.RoomOpened("live"))

	pruned, err := s.Prune(2)
	require.NoError(t, err)
	assert.Equal(t, 3, pruned)

	sessions, err := s.RecentSessions(10)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	// The still-open session is never pruned.
	total, _, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
