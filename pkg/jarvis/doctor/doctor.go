// Package doctor runs local diagnostics: config sanity, workspace layout,
// and daemon state-file freshness.
package doctor

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/daemon"
	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

// Staleness thresholds for the daemon state file.
const (
	daemonStaleAfter    = 30 * time.Second
	schedulerStaleAfter = 120 * time.Second
	channelStaleAfter   = 300 * time.Second
)

// Check is one diagnostic result.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

func pass(name, detail string) Check { return Check{Name: name, OK: true, Detail: detail} }
func fail(name, detail string) Check { return Check{Name: name, OK: false, Detail: detail} }

// Run executes all diagnostics against the loaded config.
func Run(cfg *config.Config) []Check {
	checks := []Check{
		checkAPIKey(cfg),
		checkWorkspace(cfg),
	}
	checks = append(checks, checkDaemonState(cfg)...)
	return checks
}

func checkAPIKey(cfg *config.Config) Check {
	key := cfg.Provider.APIKey
	if key == "" || config.IsEnvReference(key) {
		return fail("api key", "no API key found; run `jarvis onboard` or set JARVIS_API_KEY")
	}
	return pass("api key", fmt.Sprintf("configured for provider %q", cfg.Provider.Name))
}

func checkWorkspace(cfg *config.Config) Check {
	ws, err := cfg.Workspace()
	if err != nil {
		return fail("workspace", err.Error())
	}
	if info, err := os.Stat(ws); err != nil || !info.IsDir() {
		return fail("workspace", fmt.Sprintf("%s is not a directory", ws))
	}
	return pass("workspace", ws)
}

// checkDaemonState reads the state file and judges component freshness:
// the daemon is stale after 30s without a write, the scheduler after 120s
// without an ok, channels after 300s.
func checkDaemonState(cfg *config.Config) []Check {
	statePath, err := config.StateFilePath()
	if err != nil {
		return []Check{fail("daemon", err.Error())}
	}

	pidPath, err := config.PIDFilePath()
	if err == nil && !daemon.IsRunning(pidPath) {
		return []Check{pass("daemon", "not running")}
	}

	snap, writtenAt, err := daemon.ReadState(statePath)
	if err != nil {
		return []Check{fail("daemon", "running but no readable state file")}
	}
	return EvaluateState(snap, writtenAt, time.Now())
}

// EvaluateState judges a state snapshot against the staleness thresholds.
func EvaluateState(snap health.Snapshot, writtenAt, now time.Time) []Check {
	var checks []Check
	if age := now.Sub(writtenAt); age > daemonStaleAfter {
		checks = append(checks, fail("daemon", fmt.Sprintf("state file stale (%s old)", age.Round(time.Second))))
	} else {
		checks = append(checks, pass("daemon", "state file fresh"))
	}

	names := make([]string, 0, len(snap.Components))
	for name := range snap.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := snap.Components[name]
		threshold, ok := stalenessFor(name)
		if !ok {
			continue
		}
		age := now.Sub(entry.LastOK)
		switch {
		case entry.Status == health.StatusError:
			checks = append(checks, fail(name, entry.LastError))
		case entry.LastOK.IsZero() || age > threshold:
			checks = append(checks, fail(name, fmt.Sprintf("no ok for %s", age.Round(time.Second))))
		default:
			checks = append(checks, pass(name, "healthy"))
		}
	}
	return checks
}

func stalenessFor(component string) (time.Duration, bool) {
	switch {
	case component == "scheduler":
		return schedulerStaleAfter, true
	case strings.HasPrefix(component, "channel:"):
		return channelStaleAfter, true
	default:
		return 0, false
	}
}
