// Package tools – shell.go is the shell tool. Commands run through the
// runtime adapter inside the workspace, gated by the security policy's
// allowed-command list.
package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/jholhewres/jarvis/pkg/jarvis/runtime"
	"github.com/jholhewres/jarvis/pkg/jarvis/security"
)

const shellTimeout = 60 * time.Second

// ShellTool executes shell commands in the workspace.
type ShellTool struct {
	runtime  runtime.Adapter
	security *security.Policy
	logger   *slog.Logger
}

// NewShellTool creates the shell tool.
func NewShellTool(rt runtime.Adapter, sec *security.Policy, logger *slog.Logger) *ShellTool {
	return &ShellTool{
		runtime:  rt,
		security: sec,
		logger:   logger.With("component", "tools", "tool", "shell"),
	}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Execute a shell command in the workspace directory and return its combined output."
}

func (t *ShellTool) ParametersSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute.",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ShellTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return Result{}, err
	}

	if !t.security.IsCommandAllowed(command) {
		return Result{
			Success: false,
			Error:   "command is not in the allowed command list",
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	t.logger.Debug("running shell command", "command", command)
	out, err := t.runtime.Exec(ctx, t.security.WorkspaceDir(), command)
	if err != nil {
		return Result{Success: false, Output: out, Error: err.Error()}, nil
	}
	return Result{Success: true, Output: out}, nil
}
