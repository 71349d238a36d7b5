package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
)

// newAgentCmd creates `jarvis agent`: one-shot with -m, interactive without.
func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Talk to the agent from the terminal",
		Long: `Runs one agent turn with -m, or starts an interactive session
without it.

Examples:
  jarvis agent -m "Summarize TODO.md"
  jarvis agent --provider groq --model llama-3.3-70b-versatile
  jarvis agent`,
		RunE: runAgent,
	}

	cmd.Flags().StringP("message", "m", "", "message for a single one-shot turn")
	cmd.Flags().String("provider", "", "override the configured provider")
	cmd.Flags().String("model", "", "override the configured model")
	cmd.Flags().Float64P("temperature", "t", -1, "override the sampling temperature")
	return cmd
}

func runAgent(cmd *cobra.Command, _ []string) error {
	providerName, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	temperature, _ := cmd.Flags().GetFloat64("temperature")

	a, err := newApp(cmd, func(cfg *config.Config) {
		if providerName != "" {
			cfg.Provider.Name = providerName
			// A different provider invalidates a configured endpoint and model.
			cfg.Provider.BaseURL = ""
			if model == "" {
				cfg.Provider.Model = ""
			}
		}
		if model != "" {
			cfg.Provider.Model = model
		}
		if temperature >= 0 {
			cfg.Provider.Temperature = temperature
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	message, _ := cmd.Flags().GetString("message")
	if message != "" {
		response, err := a.runner.RunOnce(cmd.Context(), "cli", message)
		if err != nil {
			return err
		}
		fmt.Println(response)
		return nil
	}

	return a.runner.Interactive(cmd.Context())
}
