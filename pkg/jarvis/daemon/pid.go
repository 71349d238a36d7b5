package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// stopTimeout bounds how long StopDaemon waits after SIGTERM before
// escalating to SIGKILL.
const stopTimeout = 10 * time.Second

// stopPollInterval is how often StopDaemon re-probes the process.
const stopPollInterval = 100 * time.Millisecond

// WritePIDFile records the current process ID at path.
func WritePIDFile(path string) error {
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	return nil
}

// ReadPID parses the PID recorded at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is corrupt: %q", path, data)
	}
	return pid, nil
}

// IsRunning reports whether the process named by the PID file is alive,
// probing with signal 0. A missing, corrupt, or stale file reports not
// running; stale files are removed.
func IsRunning(path string) bool {
	pid, err := ReadPID(path)
	if err != nil {
		return false
	}
	if !processAlive(pid) {
		os.Remove(path)
		return false
	}
	return true
}

// StopDaemon sends SIGTERM to the recorded process, waits up to 10 seconds
// in 100ms polls, and escalates to SIGKILL on timeout. The PID file is
// removed once the process is gone.
func StopDaemon(path string) error {
	pid, err := ReadPID(path)
	if err != nil {
		return err
	}
	if !processAlive(pid) {
		os.Remove(path)
		return fmt.Errorf("daemon is not running")
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending SIGTERM to %d: %w", pid, err)
	}

	deadline := time.Now().Add(stopTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			os.Remove(path)
			return nil
		}
		time.Sleep(stopPollInterval)
	}

	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("sending SIGKILL to %d: %w", pid, err)
	}
	os.Remove(path)
	return nil
}

// processAlive probes pid with the null signal.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
