// Package memory – sqlite.go is the SQLite backend. One table keyed by the
// memory key; recall is a LIKE scan over key and content, which is plenty at
// personal-assistant scale.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	key        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT 'core',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_updated_at ON memories(updated_at);
`

// SQLite persists memories in a local database file.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the memory database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating memory dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening memory db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing memory schema: %w", err)
	}

	return &SQLite{
		db:     db,
		logger: logger.With("component", "memory"),
	}, nil
}

func (s *SQLite) Name() string { return "sqlite" }

// Store saves or replaces the entry under key.
func (s *SQLite) Store(ctx context.Context, key, content, category string) error {
	if key == "" {
		return fmt.Errorf("memory key is empty")
	}
	if category == "" {
		category = CategoryCore
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (key, content, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			content = excluded.content,
			category = excluded.category,
			updated_at = excluded.updated_at`,
		key, content, category, now, now,
	)
	if err != nil {
		return fmt.Errorf("storing memory %q: %w", key, err)
	}
	s.logger.Debug("memory stored", "key", key, "category", category)
	return nil
}

// Recall returns entries whose key or content contains the query.
func (s *SQLite) Recall(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}

	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, content, category, updated_at
		FROM memories
		WHERE key LIKE ? OR content LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recalling memories: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt string
		if err := rows.Scan(&e.Key, &e.Content, &e.Category, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Forget removes the entry under key.
func (s *SQLite) Forget(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("forgetting memory %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
