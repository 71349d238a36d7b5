// Package integrations holds the static catalogue of external services the
// agent knows how to connect to, with setup notes surfaced by the CLI.
package integrations

import (
	"fmt"
	"sort"
	"strings"
)

// Integration describes one external service.
type Integration struct {
	Name        string
	Description string
	// Setup is shown by `jarvis integrations info NAME`.
	Setup string
	// ConfigKeys lists the config.yaml keys the integration reads.
	ConfigKeys []string
}

var catalogue = map[string]Integration{
	"discord": {
		Name:        "discord",
		Description: "Discord bot channel: talk to the agent in DMs or by mentioning it in a server.",
		Setup: `1. Create an application at https://discord.com/developers/applications
2. Add a bot, enable the Message Content intent, and copy the bot token
3. Set DISCORD_BOT_TOKEN in your environment or .env
4. Enable with: channels.discord.enabled: true in config.yaml`,
		ConfigKeys: []string{"channels.discord.enabled", "channels.discord.bot_token", "channels.discord.allowed_users"},
	},
	"brave-search": {
		Name:        "brave-search",
		Description: "Brave Search API backing the web_search tool.",
		Setup: `1. Get an API key at https://brave.com/search/api/
2. Set BRAVE_API_KEY in your environment or .env
3. Enable with: tools.web_search.enabled: true in config.yaml`,
		ConfigKeys: []string{"tools.web_search.enabled", "tools.web_search.api_key"},
	},
	"openrouter": {
		Name:        "openrouter",
		Description: "Default LLM provider: one key for many models.",
		Setup: `1. Get an API key at https://openrouter.ai/keys
2. Set JARVIS_API_KEY (or OPENROUTER_API_KEY) in your environment
3. Pick a model with: provider.model in config.yaml`,
		ConfigKeys: []string{"provider.name", "provider.model", "provider.api_key"},
	},
	"webhook": {
		Name:        "webhook",
		Description: "HTTP gateway: POST /webhook runs one agent turn, GET /health reports status.",
		Setup: `1. Start the gateway: jarvis gateway (or jarvis daemon)
2. POST {"message": "..."} to http://<host>:<port>/webhook
3. Bind address via gateway.host / gateway.port in config.yaml`,
		ConfigKeys: []string{"gateway.host", "gateway.port"},
	},
}

// All returns the catalogue sorted by name.
func All() []Integration {
	out := make([]Integration, 0, len(catalogue))
	for _, i := range catalogue {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds an integration by name, case-insensitively.
func Lookup(name string) (Integration, error) {
	i, ok := catalogue[strings.ToLower(name)]
	if !ok {
		return Integration{}, fmt.Errorf("unknown integration %q (see `jarvis integrations` for the list)", name)
	}
	return i, nil
}
