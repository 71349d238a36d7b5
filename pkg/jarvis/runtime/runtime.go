// Package runtime abstracts where shell commands run. Only the native
// runtime is implemented; the docker and cloudflare kinds are recognized
// config values that fail fast instead of silently running native.
package runtime

import (
	"context"
	"fmt"
	"os/exec"
)

// Adapter executes commands on behalf of the shell tool and the scheduler.
type Adapter interface {
	// Name identifies the runtime kind.
	Name() string
	// Exec runs command through a shell in dir, returning combined
	// stdout+stderr. A non-zero exit is returned as an error alongside
	// whatever output was produced.
	Exec(ctx context.Context, dir, command string) (string, error)
}

// Native runs commands directly on the host through sh -c.
type Native struct{}

func (Native) Name() string { return "native" }

func (Native) Exec(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("command failed: %w", err)
	}
	return string(out), nil
}

// Create builds the configured runtime adapter.
func Create(kind string) (Adapter, error) {
	switch kind {
	case "native":
		return Native{}, nil
	case "docker":
		return nil, fmt.Errorf("docker runtime is not implemented")
	case "cloudflare":
		return nil, fmt.Errorf("cloudflare runtime is not implemented")
	case "":
		return nil, fmt.Errorf("runtime kind is empty (want native)")
	default:
		return nil, fmt.Errorf("unknown runtime kind %q", kind)
	}
}
