// Package history persists visited pages in a per-profile SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS history(
	uri TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	visits INTEGER NOT NULL DEFAULT 0,
	last_visit TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS history_last_visit ON history(last_visit DESC);
`

// Entry is one visited page.
type Entry struct {
	URI       string
	Title     string
	Visits    int
	LastVisit time.Time
}

// String renders the entry as "<uri> <title>".
func (e Entry) String() string {
	if e.Title == "" {
		return e.URI
	}
	return e.URI + " " + e.Title
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = db.Close()
		return nil, fmt.Errorf("chmod history db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add records a visit to uri. A non-empty title replaces the stored one.
func (s *Store) Add(ctx context.Context, uri, title string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO history(uri, title, visits, last_visit)
VALUES (?, ?, 1, ?)
ON CONFLICT(uri) DO UPDATE SET
	title=CASE WHEN excluded.title != '' THEN excluded.title ELSE history.title END,
	visits=history.visits + 1,
	last_visit=excluded.last_visit
`, uri, title, ts(at))
	if err != nil {
		return fmt.Errorf("add history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent visit first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT uri, title, visits, last_visit FROM history
ORDER BY last_visit DESC, uri ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			last string
		)
		if err := rows.Scan(&e.URI, &e.Title, &e.Visits, &last); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.LastVisit, err = time.Parse(time.RFC3339Nano, last)
		if err != nil {
			return nil, fmt.Errorf("parse last_visit %q: %w", last, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
