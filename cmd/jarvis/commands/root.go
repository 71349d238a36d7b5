// Package commands implements the jarvis CLI using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jarvis",
		Short: "Jarvis - personal agent runtime",
		Long: `Jarvis is a personal AI agent that runs on your own machine: a
tool-calling LLM loop with persistent memory, scheduled tasks, messaging
channels, and an HTTP gateway.

Examples:
  jarvis onboard --interactive
  jarvis agent -m "What's on HEARTBEAT.md?"
  jarvis daemon
  jarvis cron add "0 9 * * *" "jarvis agent -m 'morning briefing'"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newOnboardCmd(),
		newAgentCmd(),
		newTUICmd(),
		newGatewayCmd(),
		newDaemonCmd(),
		newServiceCmd(),
		newDoctorCmd(),
		newStatusCmd(),
		newCronCmd(),
		newChannelCmd(),
		newIntegrationsCmd(),
		newSkillsCmd(),
		newMigrateCmd(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
