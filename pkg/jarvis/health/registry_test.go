package health

import (
	"encoding/json"
	"testing"
)

func TestMarkTransitions(t *testing.T) {
	Reset()
	defer Reset()

	MarkOK("gateway")
	snap := Current()
	e, ok := snap.Components["gateway"]
	if !ok {
		t.Fatal("gateway missing from snapshot")
	}
	if e.Status != StatusOK {
		t.Errorf("status = %q", e.Status)
	}
	if e.LastOK.IsZero() {
		t.Error("last_ok should be set")
	}

	MarkError("gateway", "bind failed")
	e = Current().Components["gateway"]
	if e.Status != StatusError || e.LastError != "bind failed" {
		t.Errorf("after MarkError: %+v", e)
	}
	if e.LastOK.IsZero() {
		t.Error("last_ok should survive an error mark")
	}

	MarkOK("gateway")
	e = Current().Components["gateway"]
	if e.Status != StatusOK || e.LastError != "" {
		t.Errorf("after recovery: %+v", e)
	}
}

func TestBumpRestart(t *testing.T) {
	Reset()
	defer Reset()

	BumpRestart("scheduler")
	BumpRestart("scheduler")
	if got := Current().Components["scheduler"].RestartCount; got != 2 {
		t.Errorf("restart count = %d, want 2", got)
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	Reset()
	defer Reset()

	MarkOK("heartbeat")
	MarkError("channels", "disconnected")

	data, err := CurrentJSON()
	if err != nil {
		t.Fatal(err)
	}

	var parsed struct {
		UpdatedAt     string `json:"updated_at"`
		UptimeSeconds *int64 `json:"uptime_seconds"`
		Components    map[string]struct {
			Status    string `json:"status"`
			LastError string `json:"last_error"`
		} `json:"components"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if parsed.UpdatedAt == "" || parsed.UptimeSeconds == nil {
		t.Errorf("missing top-level fields: %s", data)
	}
	if parsed.Components["heartbeat"].Status != StatusOK {
		t.Errorf("heartbeat = %+v", parsed.Components["heartbeat"])
	}
	if parsed.Components["channels"].LastError != "disconnected" {
		t.Errorf("channels = %+v", parsed.Components["channels"])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	Reset()
	defer Reset()

	MarkOK("gateway")
	snap := Current()
	snap.Components["gateway"] = Entry{Status: StatusError}

	if Current().Components["gateway"].Status != StatusOK {
		t.Error("mutating a snapshot must not affect the registry")
	}
}
