// Package memory persists facts between agent sessions. The interface is
// deliberately small: keyed store, substring recall, keyed forget. Backends:
// SQLite (default) and none.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Categories partition memories by origin.
const (
	CategoryCore         = "core"
	CategoryDaily        = "daily"
	CategoryConversation = "conversation"
)

// Entry is one recalled memory.
type Entry struct {
	Key       string
	Content   string
	Category  string
	UpdatedAt time.Time
}

// Memory is the persistence interface used by the agent and the memory
// tools. Implementations must be safe for concurrent use.
type Memory interface {
	// Name identifies the backend ("sqlite", "none").
	Name() string
	// Store saves or replaces the entry under key.
	Store(ctx context.Context, key, content, category string) error
	// Recall returns up to limit entries whose key or content matches the
	// query, most recently updated first. An empty query returns the most
	// recent entries.
	Recall(ctx context.Context, query string, limit int) ([]Entry, error)
	// Forget removes the entry under key; reports whether it existed.
	Forget(ctx context.Context, key string) (bool, error)
	// Close releases backend resources.
	Close() error
}

// Settings selects and configures a backend.
type Settings struct {
	Backend  string
	AutoSave bool
}

// New builds the configured backend. The SQLite database lives at
// <workspace>/memory/memory.db.
func New(s Settings, workspaceDir string, logger *slog.Logger) (Memory, error) {
	switch s.Backend {
	case "", "sqlite":
		return OpenSQLite(filepath.Join(workspaceDir, "memory", "memory.db"), logger)
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q (want sqlite or none)", s.Backend)
	}
}

// Noop is the disabled backend: stores nothing, recalls nothing.
type Noop struct{}

func (Noop) Name() string                                        { return "none" }
func (Noop) Store(context.Context, string, string, string) error { return nil }
func (Noop) Recall(context.Context, string, int) ([]Entry, error) {
	return nil, nil
}
func (Noop) Forget(context.Context, string) (bool, error) { return false, nil }
func (Noop) Close() error                                 { return nil }
