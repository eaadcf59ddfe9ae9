package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed session log: one row per room session, recording
// when the room opened, when it emptied out, its peak participant count and
// how many strokes were committed over its lifetime. Canvas state itself is
// never persisted; the log feeds the stats endpoints.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Session is one recorded room session. ClosedAt is nil while the room is
// still live.
type Session struct {
	ID          int        `json:"id"`
	RoomID      string     `json:"roomId"`
	OpenedAt    time.Time  `json:"openedAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
	PeakUsers   int        `json:"peakUsers"`
	StrokeTotal int        `json:"strokeTotal"`
}

func New(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps the websocket path from blocking on the log writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("session log opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		opened_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		closed_at DATETIME,
		peak_users INTEGER DEFAULT 0,
		stroke_total INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_room_sessions_room_id ON room_sessions(room_id);
	CREATE INDEX IF NOT EXISTS idx_room_sessions_closed_at ON room_sessions(closed_at);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RoomOpened records a new room session.
func (s *Store) RoomOpened(roomID string) error {
	_, err := s.db.Exec(
		"INSERT INTO room_sessions (room_id) VALUES (?)",
		roomID,
	)
	return err
}

// RoomClosed closes the most recent open session for roomID, recording its
// final totals.
func (s *Store) RoomClosed(roomID string, strokeTotal, peakUsers int) error {
	_, err := s.db.Exec(`
		UPDATE room_sessions
		SET closed_at = CURRENT_TIMESTAMP, stroke_total = ?, peak_users = ?
		WHERE id = (
			SELECT id FROM room_sessions
			WHERE room_id = ? AND closed_at IS NULL
			ORDER BY id DESC LIMIT 1
		)`,
		strokeTotal, peakUsers, roomID,
	)
	return err
}

// Totals returns lifetime session and stroke counts for the stats endpoint.
func (s *Store) Totals() (sessions, strokes int, err error) {
	row := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(stroke_total), 0) FROM room_sessions",
	)
	err = row.Scan(&sessions, &strokes)
	return sessions, strokes, err
}

// RecentSessions returns the latest closed sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, room_id, opened_at, closed_at, peak_users, stroke_total
		FROM room_sessions
		WHERE closed_at IS NOT NULL
		ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var closedAt sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.RoomID, &sess.OpenedAt, &closedAt, &sess.PeakUsers, &sess.StrokeTotal); err != nil {
			return nil, err
		}
		if closedAt.Valid {
			t := closedAt.Time
			sess.ClosedAt = &t
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Prune deletes closed sessions beyond the newest keep rows and returns how
// many were removed.
func (s *Store) Prune(keep int) (int, error) {
	result, err := s.db.Exec(`
		DELETE FROM room_sessions
		WHERE closed_at IS NOT NULL
		AND id NOT IN (
			SELECT id FROM room_sessions
			WHERE closed_at IS NOT NULL
			ORDER BY id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// StartJanitor launches a background loop that prunes the session log every
// interval, keeping the newest keep closed sessions. The returned function
// stops the loop.
func (s *Store) StartJanitor(interval time.Duration, keep int) func() {
	stop := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				pruned, err := s.Prune(keep)
				if err != nil {
					s.log.Warn("session log prune failed", zap.Error(err))
				} else if pruned > 0 {
					s.log.Info("session log pruned", zap.Int("removed", pruned))
				}
			case <-stop:
				return
			}
		}
	}()

	return func() { close(stop) }
}
