// Package health keeps the process-wide component health registry. Daemon
// components report ok/error transitions and restarts here; the state writer
// and the gateway's /health endpoint read snapshots.
package health

import (
	"encoding/json"
	"sync"
	"time"
)

// Component statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Entry is one component's health record.
type Entry struct {
	Status       string    `json:"status"`
	LastOK       time.Time `json:"last_ok"`
	LastError    string    `json:"last_error,omitempty"`
	RestartCount int       `json:"restart_count"`
}

// Snapshot is a point-in-time copy of the whole registry.
type Snapshot struct {
	UpdatedAt     time.Time        `json:"updated_at"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Components    map[string]Entry `json:"components"`
}

var (
	mu         sync.Mutex
	components = make(map[string]Entry)
	startedAt  = time.Now()
)

// MarkOK records a component as healthy.
func MarkOK(name string) {
	mu.Lock()
	defer mu.Unlock()
	e := components[name]
	e.Status = StatusOK
	e.LastOK = time.Now().UTC()
	e.LastError = ""
	components[name] = e
}

// MarkError records a component failure with its reason. The last-ok
// timestamp is left as it was.
func MarkError(name, reason string) {
	mu.Lock()
	defer mu.Unlock()
	e := components[name]
	e.Status = StatusError
	e.LastError = reason
	components[name] = e
}

// BumpRestart increments a component's restart counter.
func BumpRestart(name string) {
	mu.Lock()
	defer mu.Unlock()
	e := components[name]
	e.RestartCount++
	components[name] = e
}

// Current returns a copy of the registry state.
func Current() Snapshot {
	mu.Lock()
	defer mu.Unlock()

	copied := make(map[string]Entry, len(components))
	for name, e := range components {
		copied[name] = e
	}
	return Snapshot{
		UpdatedAt:     time.Now().UTC(),
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		Components:    copied,
	}
}

// CurrentJSON returns the pretty-printed snapshot.
func CurrentJSON() ([]byte, error) {
	return json.MarshalIndent(Current(), "", "  ")
}

// Reset clears the registry and restarts the uptime clock. Test helper.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	components = make(map[string]Entry)
	startedAt = time.Now()
}
