// Package history persists the creation history and handles its JSON
// export/import format.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sketch-sim/internal/creation"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// Store is a sqlite-backed creation history.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS creations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	html TEXT NOT NULL,
	original_image TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS creations_created_at ON creations(created_at);
`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert adds a creation. A record with the same ID yields ErrDuplicate.
func (s *Store) Insert(ctx context.Context, cr *creation.Creation) error {
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO creations(id, name, html, original_image, created_at)
VALUES (?, ?, ?, ?, ?)
`, cr.ID, cr.Name, cr.HTML, cr.OriginalImage, ts(cr.CreatedAt))
	if err != nil {
		if isUniqueErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert creation: %w", err)
	}
	return nil
}

// UpdateHTML replaces the stored document for an existing creation, keeping
// history in step with applied modifications.
func (s *Store) UpdateHTML(ctx context.Context, id, html string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE creations SET html = ? WHERE id = ?`, html, id)
	if err != nil {
		return fmt.Errorf("update creation html: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update creation html rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one creation by ID.
func (s *Store) Get(ctx context.Context, id string) (*creation.Creation, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, html, original_image, created_at
FROM creations
WHERE id = ?
`, id)
	return scanCreation(row)
}

// List returns all creations, newest first.
func (s *Store) List(ctx context.Context) ([]*creation.Creation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, html, original_image, created_at
FROM creations
ORDER BY created_at DESC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list creations: %w", err)
	}
	defer rows.Close()

	out := make([]*creation.Creation, 0)
	for rows.Next() {
		cr, err := scanCreation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter creations: %w", err)
	}
	return out, nil
}

// Delete removes a creation by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM creations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete creation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete creation rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCreation(scanner interface{ Scan(dest ...any) error }) (*creation.Creation, error) {
	var (
		cr        creation.Creation
		createdAt string
	)
	if err := scanner.Scan(&cr.ID, &cr.Name, &cr.HTML, &cr.OriginalImage, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan creation: %w", err)
	}
	var err error
	cr.CreatedAt, err = parseTS(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse creation created_at: %w", err)
	}
	return &cr, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isUniqueErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
