package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/integrations"
)

// newIntegrationsCmd creates `jarvis integrations`: the service catalogue.
func newIntegrationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrations",
		Short: "List available integrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, i := range integrations.All() {
				fmt.Printf("  %-14s %s\n", i.Name, i.Description)
			}
			fmt.Println("\nUse `jarvis integrations info NAME` for setup instructions.")
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info NAME",
		Short: "Show setup instructions for an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := integrations.Lookup(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n%s\n\n%s\n", i.Name, i.Description, i.Setup)
			if len(i.ConfigKeys) > 0 {
				fmt.Printf("\nConfig keys: %s\n", strings.Join(i.ConfigKeys, ", "))
			}
			return nil
		},
	})
	return cmd
}
