package commands

import (
	"github.com/spf13/cobra"
)

// newTUICmd creates `jarvis tui`, the interactive session alias.
func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive agent session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.runner.Interactive(cmd.Context())
		},
	}
}
