package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const systemdUnitName = "jarvis"

const systemdUnitTemplate = `[Unit]
Description=Jarvis personal agent daemon
After=network-online.target

[Service]
ExecStart=%s daemon --foreground
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// Systemd manages a systemd user unit.
type Systemd struct{}

func (s *Systemd) Label() string { return "systemd" }

func (s *Systemd) unitPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, ".config", "systemd", "user", systemdUnitName+".service"), nil
}

func systemctl(args ...string) (string, error) {
	out, err := exec.Command("systemctl", append([]string{"--user"}, args...)...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func (s *Systemd) Install(executable string) error {
	path, err := s.unitPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating systemd user dir: %w", err)
	}
	unit := fmt.Sprintf(systemdUnitTemplate, executable)
	if err := os.WriteFile(path, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}
	if _, err := systemctl("daemon-reload"); err != nil {
		return err
	}
	_, err = systemctl("enable", systemdUnitName)
	return err
}

func (s *Systemd) Start() error {
	_, err := systemctl("start", systemdUnitName)
	return err
}

func (s *Systemd) Stop() error {
	_, err := systemctl("stop", systemdUnitName)
	return err
}

func (s *Systemd) Status() (installed, running bool, err error) {
	path, err := s.unitPath()
	if err != nil {
		return false, false, err
	}
	if _, err := os.Stat(path); err != nil {
		return false, false, nil
	}

	// is-active exits non-zero when inactive; that is a state, not an error.
	out, _ := exec.Command("systemctl", "--user", "is-active", systemdUnitName).CombinedOutput()
	return true, strings.TrimSpace(string(out)) == "active", nil
}

func (s *Systemd) Uninstall() error {
	_, _ = systemctl("stop", systemdUnitName)
	_, _ = systemctl("disable", systemdUnitName)

	path, err := s.unitPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}
	_, err = systemctl("daemon-reload")
	return err
}
