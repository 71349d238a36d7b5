// Package cron – scheduler.go is the tick loop that fires due jobs.
// Commands run through sh -c, preserving shell-interpretation semantics;
// combined stdout+stderr lands in last_output. Firings of a single job are
// serialized; different jobs run in parallel.
package cron

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

const tickInterval = 2 * time.Second

// jobTimeout bounds one firing so a hung command cannot block its job
// forever.
const jobTimeout = 10 * time.Minute

// Scheduler polls the store and executes due jobs.
type Scheduler struct {
	store  *Store
	logger *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool

	// runCommand is swappable in tests.
	runCommand func(ctx context.Context, command string) (string, error)
}

// NewScheduler creates a scheduler over the given store.
func NewScheduler(store *Store, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		logger:     logger.With("component", "scheduler"),
		inFlight:   make(map[string]bool),
		runCommand: runShellCommand,
	}
}

// Run ticks until the context is cancelled. Returns the context error on
// shutdown so the supervisor can tell cancellation from failure.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "tick", tickInterval.String())
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick fires every due job that is not already running.
func (s *Scheduler) tick(ctx context.Context) {
	due, err := s.store.Due(time.Now())
	if err != nil {
		s.logger.Error("querying due jobs", "error", err)
		return
	}

	for _, job := range due {
		s.mu.Lock()
		if s.inFlight[job.ID] {
			s.mu.Unlock()
			continue
		}
		s.inFlight[job.ID] = true
		s.mu.Unlock()

		go func(job *Job) {
			defer func() {
				s.mu.Lock()
				delete(s.inFlight, job.ID)
				s.mu.Unlock()
			}()
			s.fire(ctx, job)
		}(job)
	}
}

// fire runs one job and records the outcome.
func (s *Scheduler) fire(ctx context.Context, job *Job) {
	s.logger.Info("firing job", "id", job.ID, "command", job.Command)

	runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	output, err := s.runCommand(runCtx, job.Command)
	success := err == nil
	if err != nil {
		s.logger.Warn("job failed", "id", job.ID, "error", err)
		if output == "" {
			output = err.Error()
		}
	}

	if err := s.store.RescheduleAfterRun(job, success, output); err != nil {
		s.logger.Error("rescheduling job", "id", job.ID, "error", err)
	}
}

func runShellCommand(ctx context.Context, command string) (string, error) {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	return string(out), err
}
