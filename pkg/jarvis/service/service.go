// Package service installs the daemon as an OS-managed background service:
// a systemd user unit on Linux, a LaunchAgent on macOS.
package service

import (
	"fmt"
	"os"
	"runtime"
)

// Manager abstracts the platform service layer.
type Manager interface {
	// Label names the platform layer ("systemd", "launchd").
	Label() string

	// Install writes the service definition pointing at executable and
	// enables it.
	Install(executable string) error

	Start() error
	Stop() error

	// Status reports whether the service is installed and running.
	Status() (installed, running bool, err error)

	Uninstall() error
}

// NewManager picks the manager for the current platform.
func NewManager() (Manager, error) {
	switch runtime.GOOS {
	case "linux":
		return &Systemd{}, nil
	case "darwin":
		return &Launchd{}, nil
	default:
		return nil, fmt.Errorf("service install is not supported on %s", runtime.GOOS)
	}
}

// Executable resolves the running binary's path for service definitions.
func Executable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return path, nil
}
