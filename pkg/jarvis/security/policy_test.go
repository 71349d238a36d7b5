package security

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordActionRollingWindow(t *testing.T) {
	p := FromConfig(AutonomySettings{MaxActionsPerHour: 3}, t.TempDir())
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		if !p.RecordAction() {
			t.Fatalf("action %d should be accepted", i+1)
		}
	}
	if p.RecordAction() {
		t.Fatal("fourth action within the hour should be rejected")
	}

	// Quota fully restores after the window passes.
	current = current.Add(61 * time.Minute)
	for i := 0; i < 3; i++ {
		if !p.RecordAction() {
			t.Fatalf("action %d after window should be accepted", i+1)
		}
	}
	if p.RecordAction() {
		t.Fatal("quota should be exhausted again")
	}
}

func TestRecordActionRejectionDoesNotConsume(t *testing.T) {
	p := FromConfig(AutonomySettings{MaxActionsPerHour: 1}, t.TempDir())
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := base
	p.now = func() time.Time { return current }

	if !p.RecordAction() {
		t.Fatal("first action should pass")
	}
	if p.RecordAction() {
		t.Fatal("second action should be rejected")
	}

	// The rejected attempt must not have extended the window.
	current = base.Add(time.Hour + time.Second)
	if !p.RecordAction() {
		t.Fatal("action after window should pass")
	}
}

func TestRecordActionUnlimited(t *testing.T) {
	p := FromConfig(AutonomySettings{MaxActionsPerHour: 0}, t.TempDir())
	for i := 0; i < 100; i++ {
		if !p.RecordAction() {
			t.Fatal("unlimited policy should never reject")
		}
	}
}

func TestIsPathAllowed(t *testing.T) {
	ws := t.TempDir()
	p := FromConfig(AutonomySettings{WorkspaceOnly: true}, ws)

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(ws, "notes.md"), true},
		{filepath.Join(ws, "sub", "deep.txt"), true},
		{"relative.txt", true},
		{ws, true},
		{filepath.Join(ws, "..", "escape.txt"), false},
		{"/etc/passwd", false},
		{"../outside.txt", false},
	}

	for _, tc := range cases {
		if got := p.IsPathAllowed(tc.path); got != tc.want {
			t.Errorf("IsPathAllowed(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIsPathAllowedSymlinkEscape(t *testing.T) {
	ws := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(ws, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	p := FromConfig(AutonomySettings{WorkspaceOnly: true}, ws)
	if p.IsPathAllowed(link) {
		t.Error("symlink pointing outside the workspace should be rejected")
	}
}

func TestIsPathAllowedDisabled(t *testing.T) {
	p := FromConfig(AutonomySettings{WorkspaceOnly: false}, t.TempDir())
	if !p.IsPathAllowed("/etc/passwd") {
		t.Error("confinement disabled should allow any path")
	}
}

func TestIsCommandAllowed(t *testing.T) {
	p := FromConfig(AutonomySettings{AllowedCommands: []string{"ls", "git status"}}, t.TempDir())

	cases := []struct {
		command string
		want    bool
	}{
		{"ls", true},
		{"ls -la /tmp", true},
		{"git status", true},
		{"git status --short", true},
		{"git push", false},
		{"rm -rf /", false},
		{"lsblk", false},
	}

	for _, tc := range cases {
		if got := p.IsCommandAllowed(tc.command); got != tc.want {
			t.Errorf("IsCommandAllowed(%q) = %v, want %v", tc.command, got, tc.want)
		}
	}
}

func TestIsCommandAllowedEmptyListAllowsAll(t *testing.T) {
	p := FromConfig(AutonomySettings{}, t.TempDir())
	if !p.IsCommandAllowed("anything at all") {
		t.Error("empty allow-list should permit everything")
	}
}
