// Package daemon runs the long-lived components (gateway, channels,
// heartbeat, scheduler) under a restarting supervisor, flushes health
// snapshots to disk, and manages the PID file.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

// Component is one long-lived task. Components are expected to block until
// the context is cancelled; a clean return is treated as a failure.
type Component func(ctx context.Context) error

// Supervisor restarts failed components with exponential back-off.
type Supervisor struct {
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger

	// sleep is swappable so tests do not wait out real back-offs.
	sleep func(ctx context.Context, d time.Duration)
}

// NewSupervisor creates a supervisor. Both back-offs are clamped to at
// least one second, and max is raised to initial when smaller.
func NewSupervisor(initialBackoff, maxBackoff time.Duration, logger *slog.Logger) *Supervisor {
	if initialBackoff < time.Second {
		initialBackoff = time.Second
	}
	if maxBackoff < time.Second {
		maxBackoff = time.Second
	}
	if maxBackoff < initialBackoff {
		maxBackoff = initialBackoff
	}
	return &Supervisor{
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
		logger:         logger.With("component", "supervisor"),
		sleep:          sleepCtx,
	}
}

// Supervise runs the component in a restart loop until the context is
// cancelled. Each failure marks the component's health, bumps its restart
// count and sleeps the current back-off; the back-off doubles per failure,
// saturating at max. A clean exit resets the back-off since components are
// not supposed to return without an error.
func (s *Supervisor) Supervise(ctx context.Context, name string, run Component) {
	backoff := s.initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		health.MarkOK(name)
		s.logger.Info("component started", "name", name)

		err := run(ctx)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			health.MarkError(name, err.Error())
			s.logger.Error("component failed", "name", name, "error", err)
		} else {
			health.MarkError(name, "component exited unexpectedly")
			s.logger.Error("component exited unexpectedly", "name", name)
			backoff = s.initialBackoff
		}

		health.BumpRestart(name)
		s.logger.Info("restarting component", "name", name, "backoff", backoff.String())
		s.sleep(ctx, backoff)

		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
