// Package tools – files.go implements file_read and file_write. Paths are
// resolved against the workspace and checked against the security policy's
// confinement rule before touching the filesystem.
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jholhewres/jarvis/pkg/jarvis/security"
)

// maxReadBytes caps file_read output so a huge file cannot blow up the
// conversation.
const maxReadBytes = 64 * 1024

// FileReadTool reads a file from the workspace.
type FileReadTool struct {
	security *security.Policy
}

// NewFileReadTool creates the file_read tool.
func NewFileReadTool(sec *security.Policy) *FileReadTool {
	return &FileReadTool{security: sec}
}

func (t *FileReadTool) Name() string { return "file_read" }

func (t *FileReadTool) Description() string {
	return "Read a text file. Relative paths resolve against the workspace directory."
}

func (t *FileReadTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path of the file to read.",
			},
		},
		"required": []string{"path"},
	}
}

func (t *FileReadTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return Result{}, err
	}

	resolved, ok := t.resolvePath(path)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("path %q is outside the workspace", path)}, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if len(data) > maxReadBytes {
		data = data[:maxReadBytes]
		return Result{Success: true, Output: string(data) + "\n[truncated]"}, nil
	}
	return Result{Success: true, Output: string(data)}, nil
}

func (t *FileReadTool) resolvePath(path string) (string, bool) {
	return resolveWorkspacePath(t.security, path)
}

// FileWriteTool writes a file inside the workspace.
type FileWriteTool struct {
	security *security.Policy
}

// NewFileWriteTool creates the file_write tool.
func NewFileWriteTool(sec *security.Policy) *FileWriteTool {
	return &FileWriteTool{security: sec}
}

func (t *FileWriteTool) Name() string { return "file_write" }

func (t *FileWriteTool) Description() string {
	return "Write content to a file, creating parent directories as needed. Relative paths resolve against the workspace directory."
}

func (t *FileWriteTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path of the file to write.",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to write.",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *FileWriteTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return Result{}, err
	}
	content, err := stringArg(args, "content")
	if err != nil {
		return Result{}, err
	}

	resolved, ok := resolveWorkspacePath(t.security, path)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("path %q is outside the workspace", path)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return Result{Success: false, Error: err.Error()}, nil
	}
	return Result{Success: true, Output: fmt.Sprintf("wrote %d bytes to %s", len(content), path)}, nil
}

// resolveWorkspacePath resolves a possibly-relative path against the
// workspace and applies the confinement check.
func resolveWorkspacePath(sec *security.Policy, path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(sec.WorkspaceDir(), path)
	}
	path = filepath.Clean(path)
	if !sec.IsPathAllowed(path) {
		return "", false
	}
	return path, true
}
