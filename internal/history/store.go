// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when no record matches the requested ID.
	ErrNotFound = errors.New("record not found")

	// ErrAmbiguousID is returned when an ID prefix matches more than one
	// record.
	ErrAmbiguousID = errors.New("id prefix matches multiple records")
)

// Store is a SQLite-backed invocation history. A single Store is safe for
// concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens the history database at path, creating the file and its
// parent directory if necessary. The special value ":memory:" creates an
// in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history: database path is required")
	}

	// WAL keeps concurrent readers off the single writer.
	connStr := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if path == ":memory:" {
		// Every pooled connection to ":memory:" opens a distinct empty
		// database, so in-memory stores pin a single connection.
		db.SetMaxOpenConns(1)
	} else {
		// History writes are rare and small; a small pool keeps lock
		// contention away while WAL mode serves concurrent readers.
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare history schema: %w", err)
	}

	return store, nil
}

// migrate applies the schema. Every statement is idempotent, so an
// existing database passes through unchanged.
func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		// Invocations table stores one row per finished probe
		`CREATE TABLE IF NOT EXISTS invocations (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			signal TEXT NOT NULL,
			status_code INTEGER NOT NULL DEFAULT 0,
			status_text TEXT NOT NULL DEFAULT '',
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			attempts INTEGER NOT NULL DEFAULT 1,
			error TEXT NOT NULL DEFAULT '',
			allow TEXT NOT NULL DEFAULT '',
			allow_headers TEXT NOT NULL DEFAULT '',
			max_age TEXT NOT NULL DEFAULT ''
		)`,
		// Index for newest-first listing and age-based pruning
		`CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at)`,
		// Index for per-probe queries
		`CREATE INDEX IF NOT EXISTS idx_invocations_name ON invocations(name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	return nil
}

// recordColumns lists the invocation columns in Scan order.
const recordColumns = "id, created_at, name, url, signal, status_code, status_text, elapsed_ms, attempts, error, allow, allow_headers, max_age"

// Append stores a finished invocation. A missing ID gets a fresh UUID and
// a zero CreatedAt defaults to the current time.
func (s *Store) Append(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if rec.URL == "" {
		return fmt.Errorf("record url is required")
	}
	if rec.Signal == "" {
		return fmt.Errorf("record signal is required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO invocations (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UnixNano(), rec.Name, rec.URL, rec.Signal,
		rec.StatusCode, rec.StatusText, rec.ElapsedMS, rec.Attempts,
		rec.Error, rec.Allow, rec.AllowHeaders, rec.MaxAge,
	)
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	return nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Name matches records of a single probe.
	Name string

	// Signal matches records with the given terminal signal.
	Signal string

	// Since matches records created at or after this time.
	Since time.Time

	// Limit caps the number of records returned. Zero means no limit.
	Limit int
}

// List returns records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	query := "SELECT " + recordColumns + " FROM invocations WHERE 1=1"
	args := []any{}

	if filter.Name != "" {
		query += " AND name = ?"
		args = append(args, filter.Name)
	}

	if filter.Signal != "" {
		query += " AND signal = ?"
		args = append(args, filter.Signal)
	}

	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UnixNano())
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

// Get retrieves a record by ID. A unique ID prefix is accepted, so CLI
// callers can pass shortened IDs.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM invocations WHERE id = ?", id))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	// No exact match: fall back to a prefix lookup. UUIDs contain no LIKE
	// wildcards, so the prefix can be used directly.
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM invocations WHERE id LIKE ? LIMIT 2", id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	defer rows.Close()

	var matches []*Record
	for rows.Next() {
		match, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invocations").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Clear deletes all records. Returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM invocations")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	count, _ := result.RowsAffected()
	return count, nil
}

// Prune deletes records created before the given time. Returns the number
// deleted.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM invocations WHERE created_at < ?", before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	count, _ := result.RowsAffected()
	return count, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanRecord reads one invocation row. Both sql.Row and sql.Rows satisfy
// the scanner.
func scanRecord(row interface{ Scan(dest ...any) error }) (*Record, error) {
	var rec Record
	var createdAt int64

	err := row.Scan(
		&rec.ID, &createdAt, &rec.Name, &rec.URL, &rec.Signal,
		&rec.StatusCode, &rec.StatusText, &rec.ElapsedMS, &rec.Attempts,
		&rec.Error, &rec.Allow, &rec.AllowHeaders, &rec.MaxAge,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = time.Unix(0, createdAt)
	return &rec, nil
}
