// Package tools – builtin.go assembles the built-in registry from config.
package tools

import (
	"fmt"
	"log/slog"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/memory"
	"github.com/jholhewres/jarvis/pkg/jarvis/runtime"
	"github.com/jholhewres/jarvis/pkg/jarvis/security"
)

// Builtin builds the registry with the standard tools plus the optional ones
// enabled in config.
func Builtin(cfg *config.Config, sec *security.Policy, rt runtime.Adapter, mem memory.Memory, logger *slog.Logger) (*Registry, error) {
	reg := NewRegistry()

	standard := []Tool{
		NewShellTool(rt, sec, logger),
		NewFileReadTool(sec),
		NewFileWriteTool(sec),
		NewMemoryStoreTool(mem),
		NewMemoryRecallTool(mem),
		NewMemoryForgetTool(mem),
	}
	for _, t := range standard {
		if err := reg.Register(t); err != nil {
			return nil, fmt.Errorf("registering built-in tools: %w", err)
		}
	}

	if cfg.Tools.WebSearch.Enabled {
		if cfg.Tools.WebSearch.APIKey == "" {
			return nil, fmt.Errorf("web_search is enabled but no API key is configured")
		}
		if err := reg.Register(NewWebSearchTool(cfg.Tools.WebSearch.APIKey)); err != nil {
			return nil, err
		}
	}
	if cfg.Tools.Browser.Enabled {
		if err := reg.Register(NewBrowserOpenTool(cfg.Tools.Browser.AllowedPrefixes)); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
