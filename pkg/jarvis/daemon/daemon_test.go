package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSupervisorClamping(t *testing.T) {
	s := NewSupervisor(0, 0, testLogger())
	if s.initialBackoff != time.Second || s.maxBackoff != time.Second {
		t.Errorf("backoffs = %v, %v, want 1s floors", s.initialBackoff, s.maxBackoff)
	}

	s = NewSupervisor(10*time.Second, 2*time.Second, testLogger())
	if s.maxBackoff != 10*time.Second {
		t.Errorf("max = %v, want raised to initial", s.maxBackoff)
	}
}

func TestSupervisorBackoffDoubling(t *testing.T) {
	health.Reset()
	defer health.Reset()

	s := NewSupervisor(time.Second, 4*time.Second, testLogger())

	var sleeps []time.Duration
	runs := 0
	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(ctx context.Context, d time.Duration) {
		sleeps = append(sleeps, d)
		if len(sleeps) == 4 {
			cancel()
		}
	}

	s.Supervise(ctx, "flaky", func(ctx context.Context) error {
		runs++
		return fmt.Errorf("boom %d", runs)
	})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v", sleeps)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleeps[%d] = %v, want %v", i, sleeps[i], want[i])
		}
	}

	entry := health.Current().Components["flaky"]
	if entry.Status != health.StatusError || entry.RestartCount != 4 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestSupervisorCleanExitResetsBackoff(t *testing.T) {
	health.Reset()
	defer health.Reset()

	s := NewSupervisor(time.Second, 8*time.Second, testLogger())

	var sleeps []time.Duration
	runs := 0
	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(ctx context.Context, d time.Duration) {
		sleeps = append(sleeps, d)
		if len(sleeps) == 4 {
			cancel()
		}
	}

	// Two failures double the back-off; a clean exit resets it.
	s.Supervise(ctx, "svc", func(ctx context.Context) error {
		runs++
		if runs <= 2 {
			return fmt.Errorf("fail")
		}
		return nil
	})

	want := []time.Duration{time.Second, 2 * time.Second, time.Second, time.Second}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Errorf("sleeps = %v, want %v", sleeps, want)
			break
		}
	}

	entry := health.Current().Components["svc"]
	if entry.LastError != "component exited unexpectedly" {
		t.Errorf("last_error = %q", entry.LastError)
	}
}

func TestSupervisorStopsOnCancelDuringRun(t *testing.T) {
	health.Reset()
	defer health.Reset()

	s := NewSupervisor(time.Second, time.Second, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Supervise(ctx, "blocking", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop on cancel")
	}

	if health.Current().Components["blocking"].RestartCount != 0 {
		t.Error("cancellation must not count as a restart")
	}
}

func TestStateRoundTrip(t *testing.T) {
	health.Reset()
	defer health.Reset()
	health.MarkOK("scheduler")
	health.MarkError("gateway", "port in use")

	path := filepath.Join(t.TempDir(), "daemon_state.json")
	if err := WriteState(path); err != nil {
		t.Fatal(err)
	}

	snap, writtenAt, err := ReadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if writtenAt.IsZero() {
		t.Error("written_at missing")
	}
	if snap.Components["scheduler"].Status != health.StatusOK {
		t.Errorf("scheduler = %+v", snap.Components["scheduler"])
	}
	if snap.Components["gateway"].LastError != "port in use" {
		t.Errorf("gateway = %+v", snap.Components["gateway"])
	}

	// Atomic write leaves no temp files behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has leftovers: %v", entries)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")

	if err := WritePIDFile(path); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPID(path)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
	if !IsRunning(path) {
		t.Error("own process should be running")
	}
}

func TestIsRunningStaleCleanup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")

	// PID far beyond pid_max on any sane system.
	os.WriteFile(path, []byte(strconv.Itoa(1<<30)+"\n"), 0o644)

	if IsRunning(path) {
		t.Fatal("dead pid reported as running")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale pid file should be removed")
	}
}

func TestIsRunningMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	if IsRunning(filepath.Join(dir, "absent.pid")) {
		t.Error("missing file reported as running")
	}

	corrupt := filepath.Join(dir, "corrupt.pid")
	os.WriteFile(corrupt, []byte("not a pid"), 0o644)
	if IsRunning(corrupt) {
		t.Error("corrupt file reported as running")
	}
}

func TestDaemonRunAndShutdown(t *testing.T) {
	health.Reset()
	defer health.Reset()

	dir := t.TempDir()
	opts := Options{
		PIDFilePath:   filepath.Join(dir, "daemon.pid"),
		StateFilePath: filepath.Join(dir, "daemon_state.json"),
		Components: map[string]Component{
			"gateway": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
		Disabled:       []string{"channels"},
		InitialBackoff: time.Second,
		MaxBackoff:     time.Second,
		Logger:         testLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(opts).Run(ctx) }()

	// Wait for the PID file to confirm startup.
	deadline := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(opts.PIDFilePath); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("daemon never wrote pid file")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if health.Current().Components["channels"].Status != health.StatusOK {
		t.Error("disabled component should be marked ok")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}

	if _, err := os.Stat(opts.PIDFilePath); !os.IsNotExist(err) {
		t.Error("pid file should be removed on shutdown")
	}
	if _, err := os.Stat(opts.StateFilePath); !os.IsNotExist(err) {
		t.Error("state file should be removed on shutdown")
	}
}

func TestDaemonRefusesSecondInstance(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "daemon.pid")
	WritePIDFile(pidPath)

	d := New(Options{
		PIDFilePath:   pidPath,
		StateFilePath: filepath.Join(dir, "state.json"),
		Logger:        testLogger(),
	})
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected already-running error")
	}
}
