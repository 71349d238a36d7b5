// Package security implements the guardrails for autonomous tool execution:
// a sliding-window rate limit over tool invocations, workspace path
// confinement, and shell command allow-listing.
package security

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AutonomySettings are the security-relevant knobs from the config.
type AutonomySettings struct {
	MaxActionsPerHour int
	WorkspaceOnly     bool
	AllowedCommands   []string
}

// Policy gates tool execution. Safe for concurrent use.
type Policy struct {
	maxActionsPerHour int
	workspaceOnly     bool
	workspaceDir      string
	allowedCommands   []string

	mu      sync.Mutex
	actions []time.Time

	// now is swappable in tests.
	now func() time.Time
}

// FromConfig builds a policy from the autonomy settings and the resolved
// workspace directory.
func FromConfig(autonomy AutonomySettings, workspaceDir string) *Policy {
	return &Policy{
		maxActionsPerHour: autonomy.MaxActionsPerHour,
		workspaceOnly:     autonomy.WorkspaceOnly,
		workspaceDir:      workspaceDir,
		allowedCommands:   autonomy.AllowedCommands,
		now:               time.Now,
	}
}

// WorkspaceDir returns the confinement root.
func (p *Policy) WorkspaceDir() string { return p.workspaceDir }

// RecordAction consults the rolling one-hour window. If recording one more
// action would exceed max_actions_per_hour the call is rejected and nothing
// is recorded; otherwise the action is recorded and accepted. A limit of
// zero or less means unlimited.
func (p *Policy) RecordAction() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	cutoff := now.Add(-time.Hour)

	valid := p.actions[:0]
	for _, t := range p.actions {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	p.actions = valid

	if p.maxActionsPerHour > 0 && len(p.actions) >= p.maxActionsPerHour {
		return false
	}
	p.actions = append(p.actions, now)
	return true
}

// IsPathAllowed reports whether a file operation on path is permitted. When
// workspace_only is set, the path must canonicalize to somewhere under the
// workspace directory. Relative paths are resolved against the workspace.
func (p *Policy) IsPathAllowed(path string) bool {
	if !p.workspaceOnly {
		return true
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(p.workspaceDir, path)
	}
	path = filepath.Clean(path)

	// Resolve symlinks where possible so links pointing outside the
	// workspace are caught; a path that does not exist yet is judged on
	// its cleaned form.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	root := p.workspaceDir
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// IsCommandAllowed gates shell commands against the allowed-command list. An
// empty list allows everything. A command matches when its first word equals
// an allowed entry, or when the full command starts with an allowed entry
// followed by a space (so "git status" permits "git status --short").
func (p *Policy) IsCommandAllowed(command string) bool {
	if len(p.allowedCommands) == 0 {
		return true
	}

	command = strings.TrimSpace(command)
	first := command
	if i := strings.IndexByte(command, ' '); i >= 0 {
		first = command[:i]
	}

	for _, allowed := range p.allowedCommands {
		if first == allowed || command == allowed || strings.HasPrefix(command, allowed+" ") {
			return true
		}
	}
	return false
}
