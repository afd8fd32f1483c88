package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens a SQLite build history.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrOpenFailed, err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, wrap(ErrSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		topology TEXT NOT NULL,
		outcome TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		rows_read INTEGER NOT NULL,
		entries INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		collisions INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		issues INTEGER NOT NULL,
		manifest_hash TEXT,
		report BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_outcome ON builds(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a finished build.
func (s *SQLiteStore) Append(ctx context.Context, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, input, output, topology, outcome, started_at, duration_ms,
			rows_read, entries, skipped, collisions, pages, issues, manifest_hash, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BuildID, b.Input, b.Output, b.Topology, b.Outcome, b.Start.UnixMilli(), b.Duration.Milliseconds(),
		b.Rows, b.Entries, b.Skipped, b.Collisions, b.Pages, b.Issues, b.ManifestHash, b.Report,
	)
	if err != nil {
		return wrap(ErrAppendFailed, fmt.Errorf("insert build %s: %w", b.BuildID, err))
	}
	return nil
}

const selectBuilds = `SELECT id, build_id, input, output, topology, outcome, started_at, duration_ms,
	rows_read, entries, skipped, collisions, pages, issues, manifest_hash, report FROM builds`

// Recent returns up to n builds, newest first. n <= 0 returns every build.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		n = -1
	}
	rows, err := s.db.QueryContext(ctx, selectBuilds+" ORDER BY started_at DESC, id DESC LIMIT ?", n)
	if err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, wrap(ErrQueryFailed, err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrQueryFailed, fmt.Errorf("iterate rows: %w", err))
	}
	return builds, nil
}

// Get returns the build with the given build id.
func (s *SQLiteStore) Get(ctx context.Context, buildID string) (Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := scanBuild(s.db.QueryRowContext(ctx, selectBuilds+" WHERE build_id = ?", buildID))
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNotFound.WithContext("build_id", buildID)
	}
	if err != nil {
		return Build{}, wrap(ErrQueryFailed, err)
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(sc scanner) (Build, error) {
	var b Build
	var startedMS, durationMS int64
	var hash sql.NullString
	err := sc.Scan(&b.ID, &b.BuildID, &b.Input, &b.Output, &b.Topology, &b.Outcome, &startedMS, &durationMS,
		&b.Rows, &b.Entries, &b.Skipped, &b.Collisions, &b.Pages, &b.Issues, &hash, &b.Report)
	if err != nil {
		return Build{}, fmt.Errorf("scan build: %w", err)
	}
	b.Start = time.UnixMilli(startedMS)
	b.Duration = time.Duration(durationMS) * time.Millisecond
	b.ManifestHash = hash.String
	return b, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
