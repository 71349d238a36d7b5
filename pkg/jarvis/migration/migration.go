// Package migration imports data from an OpenClaw installation: workspace
// files, skills, and memory are copied into the jarvis layout. Existing
// files are never overwritten.
package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Options controls an OpenClaw migration.
type Options struct {
	// SourceDir is the OpenClaw home, typically ~/.openclaw.
	SourceDir string

	// WorkspaceDir is the jarvis workspace to copy into.
	WorkspaceDir string

	// DryRun reports planned actions without touching the filesystem.
	DryRun bool
}

// Action is one planned or executed migration step.
type Action struct {
	Kind   string // "copy" or "skip"
	Source string
	Dest   string
	Reason string // set for skips
}

// Report lists what the migration did (or would do under dry-run).
type Report struct {
	Actions []Action
}

// Copied counts the copy actions.
func (r *Report) Copied() int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == "copy" {
			n++
		}
	}
	return n
}

// DefaultSourceDir is the standard OpenClaw home.
func DefaultSourceDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, ".openclaw"), nil
}

// MigrateOpenClaw copies the OpenClaw workspace tree into ours. Files that
// already exist at the destination are skipped so a re-run is safe.
func MigrateOpenClaw(opts Options) (*Report, error) {
	srcWorkspace := filepath.Join(opts.SourceDir, "workspace")
	if _, err := os.Stat(srcWorkspace); err != nil {
		return nil, fmt.Errorf("no OpenClaw workspace at %s", srcWorkspace)
	}

	report := &Report{}
	err := filepath.WalkDir(srcWorkspace, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}

		rel, err := filepath.Rel(srcWorkspace, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(opts.WorkspaceDir, rel)

		if _, err := os.Stat(dest); err == nil {
			report.Actions = append(report.Actions, Action{
				Kind: "skip", Source: path, Dest: dest, Reason: "destination exists",
			})
			return nil
		}

		report.Actions = append(report.Actions, Action{Kind: "copy", Source: path, Dest: dest})
		if opts.DryRun {
			return nil
		}
		return copyFile(path, dest)
	})
	if err != nil {
		return nil, fmt.Errorf("migrating workspace: %w", err)
	}
	return report, nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}
