// Package heartbeat runs periodic self-prompts. HEARTBEAT.md in the
// workspace holds one task per non-blank, non-# line; each tick runs every
// task as an independent one-shot agent turn.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileName is the workspace task-list file.
const FileName = "HEARTBEAT.md"

// minInterval floors the tick interval so a typo in config cannot hammer
// the provider.
const minInterval = 5 * time.Minute

// taskPrefix frames heartbeat prompts so the model knows the request is
// self-initiated.
const taskPrefix = "[Heartbeat Task] "

const defaultContents = `# Heartbeat tasks
# One task per line. Lines starting with # are ignored.
# Example:
# Check the calendar for events in the next hour and summarize them.
`

// TurnFunc runs one one-shot agent turn and returns the final text.
type TurnFunc func(ctx context.Context, session, message string) (string, error)

// Worker ticks on an interval and runs the task list.
type Worker struct {
	workspaceDir string
	interval     time.Duration
	turn         TurnFunc
	logger       *slog.Logger
}

// NewWorker creates a heartbeat worker. intervalMinutes is floored to 5.
func NewWorker(workspaceDir string, intervalMinutes int, turn TurnFunc, logger *slog.Logger) *Worker {
	interval := time.Duration(intervalMinutes) * time.Minute
	if interval < minInterval {
		interval = minInterval
	}
	return &Worker{
		workspaceDir: workspaceDir,
		interval:     interval,
		turn:         turn,
		logger:       logger.With("component", "heartbeat"),
	}
}

// EnsureFile creates a commented HEARTBEAT.md when none exists. Existing
// files are never touched.
func EnsureFile(workspaceDir string) error {
	path := filepath.Join(workspaceDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", FileName, err)
	}
	if err := os.WriteFile(path, []byte(defaultContents), 0o644); err != nil {
		return fmt.Errorf("creating %s: %w", FileName, err)
	}
	return nil
}

// CollectTasks reads the task list: non-blank lines not starting with #.
// A missing file yields no tasks.
func CollectTasks(workspaceDir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(workspaceDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	var tasks []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tasks = append(tasks, line)
	}
	return tasks, nil
}

// Run ticks until the context is cancelled. Tasks within one tick run
// sequentially; each is an independent session with a fresh history.
func (w *Worker) Run(ctx context.Context) error {
	if err := EnsureFile(w.workspaceDir); err != nil {
		return err
	}
	w.logger.Info("heartbeat started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runTasks(ctx)
		}
	}
}

func (w *Worker) runTasks(ctx context.Context) {
	tasks, err := CollectTasks(w.workspaceDir)
	if err != nil {
		w.logger.Error("collecting heartbeat tasks", "error", err)
		return
	}
	if len(tasks) == 0 {
		w.logger.Debug("no heartbeat tasks")
		return
	}

	for i, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		session := fmt.Sprintf("heartbeat-%d", i+1)
		if _, err := w.turn(ctx, session, taskPrefix+task); err != nil {
			w.logger.Warn("heartbeat task failed", "task", task, "error", err)
		}
	}
}
