// Package config defines the runtime configuration, its defaults, and the
// well-known paths under ~/.jarvis.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the full runtime configuration, loaded from
// ~/.jarvis/config.yaml with defaults overlaid.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`

	Autonomy    AutonomyConfig    `yaml:"autonomy"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Heartbeat   HeartbeatConfig   `yaml:"heartbeat"`
	Memory      MemoryConfig      `yaml:"memory"`
	Tools       ToolsConfig       `yaml:"tools"`
	Channels    ChannelsConfig    `yaml:"channels"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Runtime     RuntimeConfig     `yaml:"runtime"`
	Logging     LoggingConfig     `yaml:"logging"`

	// WorkspaceDir overrides the default workspace location.
	WorkspaceDir string `yaml:"workspace_dir,omitempty"`
}

// ProviderConfig selects and authenticates the LLM endpoint.
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	AuthStyle   string  `yaml:"auth_style,omitempty"`
	AuthHeader  string  `yaml:"auth_header,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature"`
}

// AutonomyConfig bounds what the agent may do without supervision.
type AutonomyConfig struct {
	MaxToolIterations int      `yaml:"max_tool_iterations"`
	MaxHistoryTurns   int      `yaml:"max_history_turns"`
	MaxActionsPerHour int      `yaml:"max_actions_per_hour"`
	WorkspaceOnly     bool     `yaml:"workspace_only"`
	AllowedCommands   []string `yaml:"allowed_commands,omitempty"`
}

// ReliabilityConfig tunes provider retries and daemon restart back-off.
type ReliabilityConfig struct {
	RetryAttempts         int `yaml:"retry_attempts"`
	RetryBackoffSeconds   int `yaml:"retry_backoff_seconds"`
	InitialBackoffSeconds int `yaml:"initial_backoff_seconds"`
	MaxBackoffSeconds     int `yaml:"max_backoff_seconds"`
}

// HeartbeatConfig controls the periodic self-prompt worker.
type HeartbeatConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// MemoryConfig selects the memory backend.
type MemoryConfig struct {
	Backend  string `yaml:"backend"`
	AutoSave bool   `yaml:"auto_save"`
}

// ToolsConfig enables the optional built-in tools.
type ToolsConfig struct {
	WebSearch WebSearchConfig `yaml:"web_search"`
	Browser   BrowserConfig   `yaml:"browser"`
}

// WebSearchConfig configures the Brave Search tool.
type WebSearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// BrowserConfig configures the browser_open tool.
type BrowserConfig struct {
	Enabled         bool     `yaml:"enabled"`
	AllowedPrefixes []string `yaml:"allowed_prefixes,omitempty"`
}

// ChannelsConfig declares the messaging transports.
type ChannelsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig configures the Discord channel.
type DiscordConfig struct {
	Enabled      bool     `yaml:"enabled"`
	BotToken     string   `yaml:"bot_token,omitempty"`
	AllowedUsers []string `yaml:"allowed_users,omitempty"`
}

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RuntimeConfig selects the command execution runtime.
type RuntimeConfig struct {
	Kind string `yaml:"kind"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when a field is absent from
// the YAML file.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        "openrouter",
			Temperature: 0.7,
		},
		Autonomy: AutonomyConfig{
			MaxToolIterations: 10,
			MaxHistoryTurns:   20,
			MaxActionsPerHour: 60,
			WorkspaceOnly:     true,
		},
		Reliability: ReliabilityConfig{
			RetryAttempts:         3,
			RetryBackoffSeconds:   1,
			InitialBackoffSeconds: 1,
			MaxBackoffSeconds:     60,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:         false,
			IntervalMinutes: 30,
		},
		Memory: MemoryConfig{
			Backend:  "sqlite",
			AutoSave: true,
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Runtime: RuntimeConfig{
			Kind: "native",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ---------- Paths ----------

// Dir returns the config directory (~/.jarvis), creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	dir := filepath.Join(home, ".jarvis")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	return dir, nil
}

// Path returns the config file path (~/.jarvis/config.yaml).
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Workspace resolves the workspace directory, creating it if needed. The
// default is ~/.jarvis/workspace unless overridden in config.
func (c *Config) Workspace() (string, error) {
	if c.WorkspaceDir != "" {
		if err := os.MkdirAll(c.WorkspaceDir, 0o755); err != nil {
			return "", fmt.Errorf("creating workspace dir: %w", err)
		}
		return c.WorkspaceDir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	ws := filepath.Join(dir, "workspace")
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return "", fmt.Errorf("creating workspace dir: %w", err)
	}
	return ws, nil
}

// PIDFilePath returns the daemon PID file path.
func PIDFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daemon.pid"), nil
}

// StateFilePath returns the daemon state snapshot path.
func StateFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daemon_state.json"), nil
}

// VaultPath returns the encrypted vault path.
func VaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".jarvis.vault"), nil
}
