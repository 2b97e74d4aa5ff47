// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/arxiv-digest/internal/fileutil"
)

// SQLiteStore keeps ids in a SQLite database. Ids recorded during a run are
// staged in memory and written in one transaction by Persist.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	seen    map[string]struct{}
	pending []string
}

// OpenSQLite opens or creates the database at path and loads the known ids.
// A file that is not a usable database is moved to path+".corrupt", together
// with its -wal and -shm files, and a fresh database is created in its
// place; the returned error then wraps ErrCorrupt.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s, err := openSQLite(path)
	if err == nil {
		return s, nil
	}

	if _, statErr := os.Stat(path); statErr != nil {
		// Nothing on disk to blame; this is a real failure.
		return nil, err
	}
	moved, moveErr := fileutil.MoveAside(path, ".corrupt")
	if moveErr != nil {
		return nil, fmt.Errorf("%v (and %w)", err, moveErr)
	}
	// A stale write-ahead log would be replayed into the fresh database.
	for _, sidecar := range []string{path + "-wal", path + "-shm"} {
		if _, statErr := os.Stat(sidecar); statErr != nil {
			continue
		}
		if _, moveErr := fileutil.MoveAside(sidecar, ".corrupt"); moveErr != nil {
			return nil, fmt.Errorf("%v (and %w)", err, moveErr)
		}
	}
	s, freshErr := openSQLite(path)
	if freshErr != nil {
		return nil, freshErr
	}
	return s, fmt.Errorf("%w: %v (moved to %s)", ErrCorrupt, err, moved)
}

func openSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, seen: make(map[string]struct{})}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.loadIDs(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading ids: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS recorded_papers (
			id TEXT PRIMARY KEY,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS store_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadIDs() error {
	rows, err := s.db.Query(`SELECT id FROM recorded_papers`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.seen[id] = struct{}{}
	}
	return rows.Err()
}

func (s *SQLiteStore) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

func (s *SQLiteStore) Record(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.pending = append(s.pending, id)
}

func (s *SQLiteStore) Len() int { return len(s.seen) }

// Persist inserts the staged ids and updates the last-updated stamp in one
// transaction.
func (s *SQLiteStore) Persist() error {
	stamp := now().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO recorded_papers (id, recorded_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range s.pending {
		if _, err := stmt.Exec(id, stamp); err != nil {
			return fmt.Errorf("inserting %s: %w", id, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO store_meta (key, value) VALUES ('last_updated', ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, stamp)
	if err != nil {
		return fmt.Errorf("updating last_updated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing store: %w", err)
	}
	s.pending = nil
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
