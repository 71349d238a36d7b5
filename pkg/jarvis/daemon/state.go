package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

// stateInterval is how often the health snapshot is flushed to disk.
const stateInterval = 5 * time.Second

// stateFile is the on-disk health snapshot plus the write timestamp the
// doctor uses to judge freshness.
type stateFile struct {
	health.Snapshot
	WrittenAt time.Time `json:"written_at"`
}

// WriteState flushes the current health snapshot to path atomically, via a
// temp file in the same directory and a rename.
func WriteState(path string) error {
	data, err := json.MarshalIndent(stateFile{
		Snapshot:  health.Current(),
		WrittenAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".daemon_state-*")
	if err != nil {
		return fmt.Errorf("creating state temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing state temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// ReadState loads a snapshot previously written by WriteState.
func ReadState(path string) (health.Snapshot, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return health.Snapshot{}, time.Time{}, fmt.Errorf("reading state file: %w", err)
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return health.Snapshot{}, time.Time{}, fmt.Errorf("decoding state file: %w", err)
	}
	return sf.Snapshot, sf.WrittenAt, nil
}

// runStateWriter flushes every 5 seconds until the context is cancelled,
// with one final flush so shutdown state lands on disk.
func runStateWriter(ctx context.Context, path string, logger *slog.Logger) {
	ticker := time.NewTicker(stateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := WriteState(path); err != nil {
				logger.Warn("final state write failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := WriteState(path); err != nil {
				logger.Warn("state write failed", "error", err)
			}
		}
	}
}
