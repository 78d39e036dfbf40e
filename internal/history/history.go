// Package history keeps a SQLite ledger of past runs next to the archives.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	archive_path TEXT NOT NULL,
	stale_deleted INTEGER NOT NULL,
	archived INTEGER NOT NULL,
	originals_deleted INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	bytes_in INTEGER NOT NULL,
	bytes_out INTEGER NOT NULL
);
`

// Entry is one recorded run.
type Entry struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	ArchivePath      string
	StaleDeleted     int
	Archived         int
	OriginalsDeleted int
	Failed           int
	Skipped          int
	BytesIn          int64
	BytesOut         int64
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("history mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history schema apply failed: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(e Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, started_at, finished_at, archive_path,
			stale_deleted, archived, originals_deleted, failed, skipped,
			bytes_in, bytes_out)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID,
		e.StartedAt.UTC().Format(time.RFC3339Nano),
		e.FinishedAt.UTC().Format(time.RFC3339Nano),
		e.ArchivePath,
		e.StaleDeleted,
		e.Archived,
		e.OriginalsDeleted,
		e.Failed,
		e.Skipped,
		e.BytesIn,
		e.BytesOut,
	)
	if err != nil {
		return fmt.Errorf("history insert failed: %w", err)
	}
	return nil
}

// Last returns the most recently recorded run, or ok=false when the ledger
// is empty.
func (s *Store) Last() (Entry, bool, error) {
	row := s.db.QueryRow(
		`SELECT run_id, started_at, finished_at, archive_path,
			stale_deleted, archived, originals_deleted, failed, skipped,
			bytes_in, bytes_out
		 FROM runs ORDER BY id DESC LIMIT 1`)
	var e Entry
	var started, finished string
	err := row.Scan(&e.RunID, &started, &finished, &e.ArchivePath,
		&e.StaleDeleted, &e.Archived, &e.OriginalsDeleted, &e.Failed, &e.Skipped,
		&e.BytesIn, &e.BytesOut)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("history query failed: %w", err)
	}
	if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Entry{}, false, fmt.Errorf("history started_at parse: %w", err)
	}
	if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Entry{}, false, fmt.Errorf("history finished_at parse: %w", err)
	}
	return e, true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
