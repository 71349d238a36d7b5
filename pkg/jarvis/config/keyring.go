// Package config – keyring.go resolves secrets through the operating
// system's native keyring (Linux: Secret Service, macOS: Keychain, Windows:
// Credential Manager).
//
// Priority for resolving the API key:
//  1. Encrypted vault (.jarvis.vault, AES-256-GCM + Argon2id)
//  2. OS keyring
//  3. Environment variable / .env file
//  4. config.yaml value (least secure, plaintext on disk)
package config

import (
	"fmt"
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "jarvis"
	keyringAPIKey  = "api_key"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring, "" if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable probes the OS keyring with a write+delete cycle.
func KeyringAvailable() bool {
	testKey := "__jarvis_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

// ResolveAPIKey resolves the provider API key through the priority chain and
// updates the config in place. A vault that exists but is locked prompts for
// the master password.
func ResolveAPIKey(cfg *Config, logger *slog.Logger) {
	if vaultPath, err := VaultPath(); err == nil {
		vault := NewVault(vaultPath)
		if vault.Exists() {
			if !vault.IsUnlocked() {
				password, err := ReadPassword("Vault password: ")
				if err != nil {
					logger.Warn("failed to read vault password", "error", err)
				} else if err := vault.Unlock(password); err != nil {
					logger.Warn("failed to unlock vault", "error", err)
				}
			}
			if vault.IsUnlocked() {
				if val, err := vault.Get(keyringAPIKey); err == nil && val != "" {
					cfg.Provider.APIKey = val
					logger.Debug("API key loaded from encrypted vault")
					vault.Lock()
					return
				}
				vault.Lock()
			}
		}
	}

	if val := GetKeyring(keyringAPIKey); val != "" {
		cfg.Provider.APIKey = val
		logger.Debug("API key loaded from OS keyring")
		return
	}

	if cfg.Provider.APIKey != "" && !IsEnvReference(cfg.Provider.APIKey) {
		logger.Debug("API key loaded from config/env")
		return
	}

	logger.Warn("no API key found. Set one with: jarvis config set-key, or export JARVIS_API_KEY")
}

// MigrateKeyToKeyring moves the API key into the OS keyring.
func MigrateKeyToKeyring(apiKey string, logger *slog.Logger) error {
	if err := StoreKeyring(keyringAPIKey, apiKey); err != nil {
		return fmt.Errorf("storing in keyring: %w", err)
	}
	logger.Info("API key stored in OS keyring",
		"service", keyringService,
		"hint", "you can now remove it from .env and config.yaml")
	return nil
}
