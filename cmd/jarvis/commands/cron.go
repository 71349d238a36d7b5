package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/cron"
)

// newCronCmd creates `jarvis cron` with list/add/remove.
func newCronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Manage scheduled jobs",
		Long: `Schedules shell commands on cron expressions. Accepts standard
5-field crontab, or 6/7 fields with seconds and an optional year.

Examples:
  jarvis cron add "0 9 * * 1-5" "jarvis agent -m 'morning briefing'"
  jarvis cron list
  jarvis cron remove 3f1a...`,
	}

	cmd.AddCommand(newCronListCmd(), newCronAddCmd(), newCronRemoveCmd())
	return cmd
}

// openStore opens the cron store under the configured workspace.
func openStore(cmd *cobra.Command) (*cron.Store, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	workspace, err := cfg.Workspace()
	if err != nil {
		return nil, err
	}
	return cron.Open(workspace)
}

func newCronListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.List()
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("No scheduled jobs.")
				return nil
			}

			for _, job := range jobs {
				fmt.Printf("%s  %-16s  next %s  %s\n",
					job.ID,
					job.Expression,
					job.NextRun.Local().Format("2006-01-02 15:04:05"),
					job.Command)
				if job.LastRun != nil {
					status := job.LastStatus
					fmt.Printf("%s  last run %s (%s)\n",
						strings.Repeat(" ", len(job.ID)),
						job.LastRun.Local().Format("2006-01-02 15:04:05"),
						status)
				}
			}
			return nil
		},
	}
}

func newCronAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add EXPRESSION COMMAND",
		Short: "Schedule a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := store.Add(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Scheduled %s, first run %s (in %s).\n",
				job.ID,
				job.NextRun.Local().Format("2006-01-02 15:04:05"),
				time.Until(job.NextRun).Round(time.Second))
			return nil
		},
	}
}

func newCronRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			existed, err := store.Remove(args[0])
			if err != nil {
				return err
			}
			if !existed {
				return fmt.Errorf("no job with id %q", args[0])
			}
			fmt.Println("Job removed.")
			return nil
		},
	}
}
