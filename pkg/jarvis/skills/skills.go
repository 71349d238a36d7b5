// Package skills manages the workspace skills directory: plain markdown
// files whose contents are folded into the system prompt.
package skills

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirName is the skills directory under the workspace.
const DirName = "skills"

// Skill is one installed skill file.
type Skill struct {
	Name    string
	Path    string
	Content string
}

// dir returns the skills directory path, creating it if needed.
func dir(workspaceDir string) (string, error) {
	d := filepath.Join(workspaceDir, DirName)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("creating skills dir: %w", err)
	}
	return d, nil
}

// List returns the installed skills sorted by name.
func List(workspaceDir string) ([]Skill, error) {
	d, err := dir(workspaceDir)
	if err != nil {
		return nil, err
	}

	var out []Skill
	err = filepath.WalkDir(d, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		if !strings.HasSuffix(entry.Name(), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading skill %s: %w", entry.Name(), err)
		}
		out = append(out, Skill{
			Name:    strings.TrimSuffix(entry.Name(), ".md"),
			Path:    path,
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Install copies a skill file or a directory of skill files into the
// workspace skills dir. Returns the installed skill names.
func Install(workspaceDir, src string) ([]string, error) {
	d, err := dir(workspaceDir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("reading skill source: %w", err)
	}

	var installed []string
	copyOne := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := filepath.Base(path)
		if err := os.WriteFile(filepath.Join(d, name), data, 0o644); err != nil {
			return fmt.Errorf("installing %s: %w", name, err)
		}
		installed = append(installed, strings.TrimSuffix(name, ".md"))
		return nil
	}

	if !info.IsDir() {
		if !strings.HasSuffix(src, ".md") {
			return nil, fmt.Errorf("skill files must be markdown (.md): %s", src)
		}
		if err := copyOne(src); err != nil {
			return nil, err
		}
		return installed, nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if err := copyOne(filepath.Join(src, e.Name())); err != nil {
			return nil, err
		}
	}
	if len(installed) == 0 {
		return nil, fmt.Errorf("no .md skill files found in %s", src)
	}
	return installed, nil
}

// Remove deletes an installed skill by name; reports whether it existed.
func Remove(workspaceDir, name string) (bool, error) {
	d, err := dir(workspaceDir)
	if err != nil {
		return false, err
	}
	path := filepath.Join(d, name+".md")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("removing skill %q: %w", name, err)
	}
	return true, nil
}
