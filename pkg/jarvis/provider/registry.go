// Package provider – registry.go is the catalog of known OpenAI-compatible
// endpoints. Every entry resolves to the same wire client; the registry only
// supplies base URL, auth style, and the environment variable conventionally
// holding the key.
package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Endpoint describes a known OpenAI-compatible API endpoint.
type Endpoint struct {
	Name         string
	BaseURL      string
	AuthStyle    string
	AuthHeader   string
	KeyEnvVar    string
	DefaultModel string
}

var catalog = map[string]Endpoint{
	"openrouter": {
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "OPENROUTER_API_KEY",
		DefaultModel: "anthropic/claude-sonnet-4",
	},
	"openai": {
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "OPENAI_API_KEY",
		DefaultModel: "gpt-4o",
	},
	"deepseek": {
		Name:         "deepseek",
		BaseURL:      "https://api.deepseek.com/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat",
	},
	"groq": {
		Name:         "groq",
		BaseURL:      "https://api.groq.com/openai/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "GROQ_API_KEY",
		DefaultModel: "llama-3.3-70b-versatile",
	},
	"mistral": {
		Name:         "mistral",
		BaseURL:      "https://api.mistral.ai/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "MISTRAL_API_KEY",
		DefaultModel: "mistral-large-latest",
	},
	"moonshot": {
		Name:         "moonshot",
		BaseURL:      "https://api.moonshot.ai/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "MOONSHOT_API_KEY",
		DefaultModel: "kimi-k2-0711-preview",
	},
	"glm": {
		Name:         "glm",
		BaseURL:      "https://api.z.ai/api/paas/v4",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "GLM_API_KEY",
		DefaultModel: "glm-4.6",
	},
	"minimax": {
		Name:         "minimax",
		BaseURL:      "https://api.minimax.io/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "MINIMAX_API_KEY",
		DefaultModel: "MiniMax-M2",
	},
	"xai": {
		Name:         "xai",
		BaseURL:      "https://api.x.ai/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "XAI_API_KEY",
		DefaultModel: "grok-3",
	},
	"venice": {
		Name:         "venice",
		BaseURL:      "https://api.venice.ai/api/v1",
		AuthStyle:    AuthBearer,
		KeyEnvVar:    "VENICE_API_KEY",
		DefaultModel: "llama-3.3-70b",
	},
}

// Known returns the catalog names in sorted order.
func Known() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the endpoint for a catalog name.
func Lookup(name string) (Endpoint, bool) {
	ep, ok := catalog[name]
	return ep, ok
}

// Settings selects and configures a provider. A name from the catalog fills
// in the endpoint defaults; "custom" (or any unknown name with a BaseURL)
// uses the settings verbatim.
type Settings struct {
	Provider   string
	BaseURL    string
	APIKey     string
	AuthStyle  string
	AuthHeader string
	Model      string

	RetryAttempts int
	RetryBackoff  time.Duration
}

// DefaultModel returns the model to use when none is configured.
func (s Settings) DefaultModel() string {
	if s.Model != "" {
		return s.Model
	}
	if ep, ok := Lookup(s.Provider); ok {
		return ep.DefaultModel
	}
	return ""
}

// Create builds the wire provider for the given settings.
func Create(s Settings, logger *slog.Logger) (Provider, error) {
	opts := CompatibleOptions{
		Name:       s.Provider,
		BaseURL:    s.BaseURL,
		APIKey:     s.APIKey,
		AuthStyle:  s.AuthStyle,
		AuthHeader: s.AuthHeader,
	}

	if ep, ok := Lookup(s.Provider); ok {
		if opts.BaseURL == "" {
			opts.BaseURL = ep.BaseURL
		}
		if opts.AuthStyle == "" {
			opts.AuthStyle = ep.AuthStyle
		}
		if opts.AuthHeader == "" {
			opts.AuthHeader = ep.AuthHeader
		}
	} else if opts.BaseURL == "" {
		return nil, fmt.Errorf("unknown provider %q and no base_url configured", s.Provider)
	}

	return NewOpenAICompatible(opts, logger), nil
}

// CreateResilient builds the wire provider wrapped with retry.
func CreateResilient(s Settings, logger *slog.Logger) (Provider, error) {
	inner, err := Create(s, logger)
	if err != nil {
		return nil, err
	}

	attempts := s.RetryAttempts
	if attempts == 0 {
		attempts = 3
	}
	backoff := s.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	return NewResilient(inner, attempts, backoff, logger), nil
}
