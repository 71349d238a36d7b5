package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/daemon"
	"github.com/jholhewres/jarvis/pkg/jarvis/health"
)

// newStatusCmd creates `jarvis status`, printing the daemon health snapshot.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show config summary and daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			workspace, err := cfg.Workspace()
			if err != nil {
				return err
			}

			model := cfg.Provider.Model
			if model == "" {
				model = "(provider default)"
			}
			fmt.Printf("Provider:  %s, model %s\n", cfg.Provider.Name, model)
			fmt.Printf("Workspace: %s\n", workspace)
			fmt.Printf("Memory:    %s\n", cfg.Memory.Backend)
			fmt.Printf("Gateway:   %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
			fmt.Println()

			pidPath, err := config.PIDFilePath()
			if err != nil {
				return err
			}
			if !daemon.IsRunning(pidPath) {
				fmt.Println("Daemon is not running.")
				return nil
			}

			statePath, err := config.StateFilePath()
			if err != nil {
				return err
			}
			snap, writtenAt, err := daemon.ReadState(statePath)
			if err != nil {
				return fmt.Errorf("daemon is running but its state is unreadable: %w", err)
			}

			pid, _ := daemon.ReadPID(pidPath)
			fmt.Printf("Daemon running (pid %d), uptime %s, state written %s ago.\n",
				pid,
				(time.Duration(snap.UptimeSeconds) * time.Second).String(),
				time.Since(writtenAt).Round(time.Second))
			fmt.Println()

			names := make([]string, 0, len(snap.Components))
			for name := range snap.Components {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				entry := snap.Components[name]
				line := fmt.Sprintf("  %-20s %-6s restarts=%d", name, entry.Status, entry.RestartCount)
				if entry.Status == health.StatusError && entry.LastError != "" {
					line += "  " + entry.LastError
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
