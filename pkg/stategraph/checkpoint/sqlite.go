package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteSaver persists checkpoint chains to SQLite.
// It is suitable for single-process production use.
type SQLiteSaver struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteSaver creates a new SQLite checkpoint saver. The path should
// be a file path (e.g. "./checkpoints.db") or ":memory:" for testing.
func NewSQLiteSaver(path string) (*SQLiteSaver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id     TEXT NOT NULL,
			checkpoint_id TEXT NOT NULL,
			parent_id     TEXT,
			step          INTEGER NOT NULL,
			source        TEXT NOT NULL,
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			data          BLOB NOT NULL,
			UNIQUE (thread_id, checkpoint_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_checkpoints_thread
		ON checkpoints(thread_id, seq)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteSaver{db: db}, nil
}

// Put implements Saver. Checkpoints are append-only: inserting an
// existing (thread_id, checkpoint_id) pair fails with ErrDuplicateID.
func (s *SQLiteSaver) Put(ctx context.Context, cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSaverClosed
	}

	data, err := cp.Marshal()
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, checkpoint_id, parent_id, step, source, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cp.ThreadID, cp.ID, cp.ParentID, cp.Step, cp.Source, data)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateID
		}
		return fmt.Errorf("put checkpoint: %w", err)
	}
	return nil
}

// Latest implements Saver.
func (s *SQLiteSaver) Latest(ctx context.Context, threadID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrSaverClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM checkpoints
		WHERE thread_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, threadID).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load latest checkpoint: %w", err)
	}
	return Unmarshal(data)
}

// Get implements Saver.
func (s *SQLiteSaver) Get(ctx context.Context, threadID, checkpointID string) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrSaverClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM checkpoints
		WHERE thread_id = ? AND checkpoint_id = ?
	`, threadID, checkpointID).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return Unmarshal(data)
}

// List implements Saver.
func (s *SQLiteSaver) List(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrSaverClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM checkpoints
		WHERE thread_id = ?
		ORDER BY seq DESC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	out := []*Checkpoint{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		cp, err := Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}

// DeleteThread implements Saver.
func (s *SQLiteSaver) DeleteThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSaverClosed
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM checkpoints WHERE thread_id = ?
	`, threadID)
	if err != nil {
		return fmt.Errorf("delete thread checkpoints: %w", err)
	}
	return nil
}

// Close implements Saver.
func (s *SQLiteSaver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
