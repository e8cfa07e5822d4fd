// Package sqlite implements the storage contracts over SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"eventhub-api/internal/storage"
	"eventhub-api/internal/storage/sqlite/migrations"

)

// Store implements storage.Store on a single SQLite file.
type Store struct {
	db      *sql.DB
	now     func() time.Time
	applied []string
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at path and applies the bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// A single connection serializes writers and keeps the per-connection
	// pragmas in force for every statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	applied, err := s.Migrate(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.applied = applied
	return s, nil
}

// Applied lists the migrations Open applied.
func (s *Store) Applied() []string {
	return s.applied
}

// Migrate applies pending migrations and returns the names applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	applied, err := applyMigrations(ctx, s.db, migrations.FS)
	if err != nil {
		return applied, fmt.Errorf("run migrations: %w", err)
	}
	return applied, nil
}

// DB exposes the raw handle for tests and maintenance commands.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// mapError converts driver constraint failures into storage errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unique constraint failed"):
		return &storage.ConstraintError{Kind: storage.ConstraintUnique, Field: constraintFields(msg), Err: err}
	case strings.Contains(lower, "foreign key constraint failed"):
		return &storage.ConstraintError{Kind: storage.ConstraintForeignKey, Err: err}
	}
	return err
}

// constraintFields extracts column names from "UNIQUE constraint failed:
// users.email (2067)" style messages.
func constraintFields(msg string) string {
	const marker = "UNIQUE constraint failed: "
	idx := strings.Index(msg, marker)
	if idx == -1 {
		return ""
	}
	rest := msg[idx+len(marker):]
	if end := strings.Index(rest, " ("); end != -1 {
		rest = rest[:end]
	}
	parts := strings.Split(rest, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if dot := strings.LastIndex(part, "."); dot != -1 {
			part = part[dot+1:]
		}
		parts[i] = part
	}
	return strings.Join(parts, ", ")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// execAffecting runs an update/delete and reports ErrNotFound when no row
// matched.
func (s *Store) execAffecting(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
