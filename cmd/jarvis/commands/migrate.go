package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/migration"
)

// newMigrateCmd creates `jarvis migrate` with the openclaw importer.
func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import data from another installation",
	}

	openclaw := &cobra.Command{
		Use:   "openclaw",
		Short: "Import an OpenClaw workspace",
		Long: `Copies workspace files (persona, heartbeat tasks, skills, memory)
from an OpenClaw installation into the jarvis workspace. Existing files are
never overwritten, so re-running is safe.

Examples:
  jarvis migrate openclaw
  jarvis migrate openclaw --source /backups/openclaw --dry-run`,
		RunE: runMigrateOpenClaw,
	}
	openclaw.Flags().String("source", "", "OpenClaw home directory (default ~/.openclaw)")
	openclaw.Flags().Bool("dry-run", false, "report planned actions without copying")

	cmd.AddCommand(openclaw)
	return cmd
}

func runMigrateOpenClaw(cmd *cobra.Command, _ []string) error {
	workspace, err := resolveWorkspace(cmd)
	if err != nil {
		return err
	}

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source, err = migration.DefaultSourceDir()
		if err != nil {
			return err
		}
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	report, err := migration.MigrateOpenClaw(migration.Options{
		SourceDir:    source,
		WorkspaceDir: workspace,
		DryRun:       dryRun,
	})
	if err != nil {
		return err
	}

	for _, action := range report.Actions {
		if action.Kind == "skip" {
			fmt.Printf("skip %s (%s)\n", action.Dest, action.Reason)
			continue
		}
		fmt.Printf("copy %s -> %s\n", action.Source, action.Dest)
	}

	if dryRun {
		fmt.Printf("\nDry run: %d file(s) would be copied.\n", report.Copied())
	} else {
		fmt.Printf("\nMigrated %d file(s).\n", report.Copied())
	}
	return nil
}
