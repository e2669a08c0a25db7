// Package memory provides an SQLite-backed context store. Artifacts from
// past executions are indexed so later tasks can be planned with relevant
// prior work as context.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one indexed document.
type Entry struct {
	Path      string
	Text      string
	IndexedAt time.Time
}

// ContextStore persists indexed text across executions.
type ContextStore struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens (creating if necessary) the context store at the given path.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*ContextStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			indexed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}

	return &ContextStore{conn: conn, path: path}, nil
}

// Close closes the underlying database.
func (s *ContextStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path.
func (s *ContextStore) Path() string {
	return s.path
}

// Index stores a document under path, replacing any previous version.
func (s *ContextStore) Index(ctx context.Context, path, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO documents (path, text, indexed_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET text = excluded.text, indexed_at = excluded.indexed_at
	`, path, text)
	if err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	return nil
}

// Query returns up to limit documents whose path or text contains the query
// string, most recently indexed first.
func (s *ContextStore) Query(ctx context.Context, query string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := s.conn.QueryContext(ctx, `
		SELECT path, text, indexed_at FROM documents
		WHERE path LIKE ? ESCAPE '\' OR text LIKE ? ESCAPE '\'
		ORDER BY indexed_at DESC, path
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Text, &e.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of indexed documents.
func (s *ContextStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
