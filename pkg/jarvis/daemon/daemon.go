package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

// Options configures a daemon run.
type Options struct {
	// PIDFilePath and StateFilePath live under the config dir.
	PIDFilePath   string
	StateFilePath string

	// Components are the supervised tasks, keyed by health component name.
	Components map[string]Component

	// Disabled names components that are configured off. They are marked
	// ok with zero restarts so status output stays complete.
	Disabled []string

	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	Logger *slog.Logger
}

// Daemon supervises the configured components until interrupted.
type Daemon struct {
	opts   Options
	logger *slog.Logger
}

// New creates a daemon from options.
func New(opts Options) *Daemon {
	return &Daemon{
		opts:   opts,
		logger: opts.Logger.With("component", "daemon"),
	}
}

// Run writes the PID file, spawns a supervisor per component and the state
// writer, then blocks until the context is cancelled or SIGINT/SIGTERM
// arrives. Shutdown marks the daemon as error("shutdown requested"), waits
// for every supervised task, and removes the PID and state files.
func (d *Daemon) Run(ctx context.Context) error {
	if IsRunning(d.opts.PIDFilePath) {
		return fmt.Errorf("daemon already running (pid file %s)", d.opts.PIDFilePath)
	}
	if err := WritePIDFile(d.opts.PIDFilePath); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	health.MarkOK("daemon")
	for _, name := range d.opts.Disabled {
		health.MarkOK(name)
		d.logger.Info("component disabled", "name", name)
	}

	sup := NewSupervisor(d.opts.InitialBackoff, d.opts.MaxBackoff, d.opts.Logger)

	var wg sync.WaitGroup
	for name, run := range d.opts.Components {
		wg.Add(1)
		go func(name string, run Component) {
			defer wg.Done()
			sup.Supervise(ctx, name, run)
		}(name, run)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runStateWriter(ctx, d.opts.StateFilePath, d.logger)
	}()

	d.logger.Info("daemon started", "pid", os.Getpid(), "components", len(d.opts.Components))

	<-ctx.Done()
	health.MarkError("daemon", "shutdown requested")
	d.logger.Info("shutting down")

	wg.Wait()

	os.Remove(d.opts.PIDFilePath)
	os.Remove(d.opts.StateFilePath)
	d.logger.Info("daemon stopped")
	return nil
}
