package channels

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jholhewres/jarvis/pkg/jarvis/skills"
	"github.com/jholhewres/jarvis/pkg/jarvis/tools"
)

// defaultPersona is used when the workspace has no SYSTEM.md.
const defaultPersona = `You are Jarvis, a personal AI assistant running on the user's own machine.
Be direct and concise. Use the available tools when a request needs real
data or side effects; answer from knowledge when it does not.`

// promptFiles are the workspace files folded into the system prompt, in
// order. SYSTEM.md sets the persona; AGENTS.md adds standing instructions.
var promptFiles = []string{"SYSTEM.md", "AGENTS.md"}

// BuildSystemPrompt assembles the system prompt: workspace persona files,
// the tool catalogue, and installed skills.
func BuildSystemPrompt(workspaceDir string, registry *tools.Registry) (string, error) {
	var b strings.Builder

	wrote := false
	for _, name := range promptFiles {
		data, err := os.ReadFile(filepath.Join(workspaceDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
			wrote = true
		}
	}
	if !wrote {
		b.WriteString(defaultPersona)
		b.WriteString("\n\n")
	}

	if registry != nil && len(registry.All()) > 0 {
		b.WriteString("## Available tools\n\n")
		for _, tool := range registry.All() {
			fmt.Fprintf(&b, "- %s: %s\n", tool.Name(), tool.Description())
		}
		b.WriteString("\n")
	}

	installed, err := skills.List(workspaceDir)
	if err != nil {
		return "", fmt.Errorf("loading skills: %w", err)
	}
	for _, skill := range installed {
		fmt.Fprintf(&b, "## Skill: %s\n\n%s\n\n", skill.Name, strings.TrimSpace(skill.Content))
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
