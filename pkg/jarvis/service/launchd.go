package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const launchdLabel = "com.jarvis.daemon"

const launchdPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
		<string>daemon</string>
		<string>--foreground</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
</dict>
</plist>
`

// Launchd manages a macOS LaunchAgent.
type Launchd struct{}

func (l *Launchd) Label() string { return "launchd" }

func (l *Launchd) plistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist"), nil
}

func launchctl(args ...string) error {
	out, err := exec.Command("launchctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("launchctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (l *Launchd) Install(executable string) error {
	path, err := l.plistPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating LaunchAgents dir: %w", err)
	}
	plist := fmt.Sprintf(launchdPlistTemplate, launchdLabel, executable)
	if err := os.WriteFile(path, []byte(plist), 0o644); err != nil {
		return fmt.Errorf("writing plist: %w", err)
	}
	return launchctl("load", path)
}

func (l *Launchd) Start() error {
	return launchctl("start", launchdLabel)
}

func (l *Launchd) Stop() error {
	return launchctl("stop", launchdLabel)
}

func (l *Launchd) Status() (installed, running bool, err error) {
	path, err := l.plistPath()
	if err != nil {
		return false, false, err
	}
	if _, err := os.Stat(path); err != nil {
		return false, false, nil
	}

	out, _ := exec.Command("launchctl", "list").CombinedOutput()
	return true, strings.Contains(string(out), launchdLabel), nil
}

func (l *Launchd) Uninstall() error {
	path, err := l.plistPath()
	if err != nil {
		return err
	}
	_ = launchctl("unload", path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plist: %w", err)
	}
	return nil
}
