// Package session persists the last loaded source and playback position so
// the runtime can offer resume across launches.
package session

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "pulse"
	dbFileName = "session.db"
)

// Snapshot is the persisted playback state.
type Snapshot struct {
	Source   string
	Loop     bool
	Position time.Duration
	SavedAt  time.Time
}

// Interface defines the session store contract for dependency injection and
// testing.
type Interface interface {
	Save(s Snapshot) error
	Load() (*Snapshot, error)
	Clear() error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)

// Manager stores snapshots in a SQLite database.
type Manager struct {
	db *sql.DB
}

// Open opens the store at the default XDG data location.
func Open() (*Manager, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens the store at an explicit path.
func OpenAt(dbPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// Save upserts the single session row.
func (m *Manager) Save(s Snapshot) error {
	savedAt := s.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err := m.db.Exec(`
		INSERT INTO session_state (id, source, loop, position_ms, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			loop = excluded.loop,
			position_ms = excluded.position_ms,
			saved_at = excluded.saved_at
	`, s.Source, boolToInt(s.Loop), s.Position.Milliseconds(), savedAt.Unix())
	return err
}

// Load returns the stored snapshot, or nil if none was saved.
func (m *Manager) Load() (*Snapshot, error) {
	var source string
	var loop, positionMS, savedAt int64

	err := m.db.QueryRow(`
		SELECT source, loop, position_ms, saved_at FROM session_state WHERE id = 1
	`).Scan(&source, &loop, &positionMS, &savedAt)

	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // nil snapshot means no session, not an error
	}
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Source:   source,
		Loop:     loop != 0,
		Position: time.Duration(positionMS) * time.Millisecond,
		SavedAt:  time.Unix(savedAt, 0),
	}, nil
}

// Clear removes the stored snapshot.
func (m *Manager) Clear() error {
	_, err := m.db.Exec(`DELETE FROM session_state WHERE id = 1`)
	return err
}

// Close closes the underlying database.
func (m *Manager) Close() error {
	return m.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
