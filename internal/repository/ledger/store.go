// Package ledger records applied index changes in a local SQLite database.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/movieidx/internal/domain"
	"github.com/kailas-cloud/movieidx/internal/domain/migration"
)

//go:embed schema.sql
var schemaSQL string

// Store implements usecase/textindex.Ledger on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the ledger at path and applies the schema.
// ":memory:" gives a throwaway ledger.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("ledger path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// Single writer; also keeps a ":memory:" database alive across calls.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Record appends an entry. ID and AppliedAt are filled in when empty.
func (s *Store) Record(ctx context.Context, e migration.Entry) (migration.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.AppliedAt.IsZero() {
		e.AppliedAt = s.now()
	}
	e.AppliedAt = e.AppliedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_migrations (id, index_name, backend, action, checksum, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.IndexName, e.Backend, string(e.Action), e.Checksum, e.AppliedAt.UnixMilli(),
	)
	if err != nil {
		return migration.Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]migration.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, index_name, backend, action, checksum, applied_at
		 FROM index_migrations
		 ORDER BY applied_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []migration.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}

// Last returns the newest entry for indexName, or domain.ErrNotFound.
func (s *Store) Last(ctx context.Context, indexName string) (migration.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, index_name, backend, action, checksum, applied_at
		 FROM index_migrations
		 WHERE index_name = ?
		 ORDER BY applied_at DESC, rowid DESC
		 LIMIT 1`, indexName)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return migration.Entry{}, domain.ErrNotFound
	}
	return e, err
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (migration.Entry, error) {
	var (
		e       migration.Entry
		action  string
		applied int64
	)
	if err := sc.Scan(&e.ID, &e.IndexName, &e.Backend, &action, &e.Checksum, &applied); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return migration.Entry{}, err
		}
		return migration.Entry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.Action = migration.Action(action)
	e.AppliedAt = time.UnixMilli(applied).UTC()
	return e, nil
}
