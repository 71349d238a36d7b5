package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
provider:
  name: deepseek
  model: deepseek-chat
autonomy:
  max_tool_iterations: 5
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Provider.Name != "deepseek" || cfg.Provider.Model != "deepseek-chat" {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Autonomy.MaxToolIterations != 5 {
		t.Errorf("max_tool_iterations = %d", cfg.Autonomy.MaxToolIterations)
	}
	// Untouched sections keep their defaults.
	if cfg.Autonomy.MaxHistoryTurns != 20 {
		t.Errorf("max_history_turns = %d, want default 20", cfg.Autonomy.MaxHistoryTurns)
	}
	if cfg.Gateway.Port != 8787 {
		t.Errorf("gateway port = %d, want default 8787", cfg.Gateway.Port)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("provider: [broken")); err == nil {
		t.Error("invalid YAML should error")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("JARVIS_TEST_VALUE", "resolved")

	out := expandEnvVars("key: ${JARVIS_TEST_VALUE}\nother: ${JARVIS_TEST_UNSET}")
	if out != "key: resolved\nother: ${JARVIS_TEST_UNSET}" {
		t.Errorf("expanded = %q", out)
	}
}

func TestLoadFromFileExpandsAndResolves(t *testing.T) {
	t.Setenv("JARVIS_TEST_KEY", "sk-test-123")

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
provider:
  name: openai
  api_key: ${JARVIS_TEST_KEY}
`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "sk-test-123" {
		t.Errorf("api_key = %q", cfg.Provider.APIKey)
	}
}

func TestLoadFromFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Name != "openrouter" {
		t.Errorf("provider = %q, want default openrouter", cfg.Provider.Name)
	}
}

func TestResolveSecretsFromEnv(t *testing.T) {
	t.Setenv("JARVIS_API_KEY", "sk-from-env")

	cfg := DefaultConfig()
	resolveSecrets(cfg)
	if cfg.Provider.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q", cfg.Provider.APIKey)
	}
}

func TestResolveSecretsProviderSpecificEnv(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-ds")

	cfg := DefaultConfig()
	cfg.Provider.Name = "deepseek"
	resolveSecrets(cfg)
	if cfg.Provider.APIKey != "sk-ds" {
		t.Errorf("api_key = %q", cfg.Provider.APIKey)
	}
}

func TestSaveWritesRestrictedPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(DefaultConfig(), path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %04o, want 0600", perm)
	}
}

func TestVaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vault")

	v := NewVault(path)
	if err := v.Create("master-password"); err != nil {
		t.Fatal(err)
	}
	if err := v.Set("api_key", "sk-secret"); err != nil {
		t.Fatal(err)
	}
	v.Lock()

	// Fresh handle, wrong password.
	v2 := NewVault(path)
	if err := v2.Unlock("wrong"); err == nil {
		t.Fatal("wrong password should fail to unlock")
	}

	// Right password.
	if err := v2.Unlock("master-password"); err != nil {
		t.Fatal(err)
	}
	got, err := v2.Get("api_key")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sk-secret" {
		t.Errorf("secret = %q", got)
	}

	keys, err := v2.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 1 || keys[0] != "api_key" {
		t.Errorf("keys = %v", keys)
	}
}

func TestVaultLockedOperationsFail(t *testing.T) {
	v := NewVault(filepath.Join(t.TempDir(), "test.vault"))
	if err := v.Set("k", "v"); err == nil {
		t.Error("set on a locked vault should fail")
	}
	if _, err := v.Get("k"); err == nil {
		t.Error("get on a locked vault should fail")
	}
}

func TestVaultFilePlaintextAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vault")
	v := NewVault(path)
	if err := v.Create("pw"); err != nil {
		t.Fatal(err)
	}
	if err := v.Set("api_key", "sk-very-secret-value"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "sk-very-secret-value") {
		t.Error("vault file must not contain the plaintext secret")
	}
}
