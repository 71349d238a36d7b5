// Package config – loader.go reads the YAML configuration with .env loading,
// ${VAR} expansion, and secret resolution via the vault → keyring → env →
// config chain.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} references in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the config from the default location. A missing file yields the
// defaults; the caller decides whether that is acceptable.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// LoadFromFile reads and parses a YAML configuration file. .env files are
// loaded first, ${VAR} references are expanded, and secrets are resolved
// from the environment when the config leaves them empty.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			resolveSecrets(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))
	cfg, err := Parse([]byte(expanded))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg)
	checkFilePermissions(path)

	return cfg, nil
}

// Parse parses YAML bytes into a Config, starting from the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// Save writes the config as YAML with owner-only permissions. Secrets that
// match a set environment variable are written as references.
func Save(cfg *Config, path string) error {
	sanitized := *cfg
	sanitized.Provider.APIKey = sanitizeSecret(cfg.Provider.APIKey, "JARVIS_API_KEY")
	sanitized.Channels.Discord.BotToken = sanitizeSecret(cfg.Channels.Discord.BotToken, "DISCORD_BOT_TOKEN")
	sanitized.Tools.WebSearch.APIKey = sanitizeSecret(cfg.Tools.WebSearch.APIKey, "BRAVE_API_KEY")

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ---------- Internal ----------

// loadEnvFiles loads .env files; existing env vars are never overwritten.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} references with their environment values.
// Unset references are left in place so placeholders survive a round trip.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// resolveSecrets fills empty or unresolved secrets from conventional
// environment variables.
func resolveSecrets(cfg *Config) {
	if cfg.Provider.APIKey == "" || IsEnvReference(cfg.Provider.APIKey) {
		for _, env := range []string{"JARVIS_API_KEY", providerKeyEnv(cfg.Provider.Name), "OPENAI_API_KEY"} {
			if env == "" {
				continue
			}
			if key := os.Getenv(env); key != "" {
				cfg.Provider.APIKey = key
				break
			}
		}
	}
	if cfg.Channels.Discord.BotToken == "" || IsEnvReference(cfg.Channels.Discord.BotToken) {
		if tok := os.Getenv("DISCORD_BOT_TOKEN"); tok != "" {
			cfg.Channels.Discord.BotToken = tok
		}
	}
	if cfg.Tools.WebSearch.APIKey == "" || IsEnvReference(cfg.Tools.WebSearch.APIKey) {
		if key := os.Getenv("BRAVE_API_KEY"); key != "" {
			cfg.Tools.WebSearch.APIKey = key
		}
	}
}

// providerKeyEnv returns the conventional env var for a provider name, e.g.
// "openrouter" -> OPENROUTER_API_KEY.
func providerKeyEnv(provider string) string {
	if provider == "" {
		return ""
	}
	return strings.ToUpper(provider) + "_API_KEY"
}

// sanitizeSecret replaces a real secret with an env var reference when the
// variable is set to the same value.
func sanitizeSecret(value, envVar string) string {
	if value == "" || IsEnvReference(value) {
		return value
	}
	if os.Getenv(envVar) == value {
		return "${" + envVar + "}"
	}
	return value
}

// IsEnvReference checks if a string is an unresolved ${VAR} reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "${")
}

// checkFilePermissions warns when the config file is group/world readable.
func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	mode := info.Mode().Perm()
	if mode&0o044 != 0 {
		slog.Warn("config file has open permissions, consider restricting",
			"path", path,
			"current", fmt.Sprintf("%04o", mode),
			"recommended", "0600",
		)
	}
}
