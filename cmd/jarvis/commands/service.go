package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/service"
)

// newServiceCmd creates `jarvis service` with the OS service lifecycle.
func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the OS background service",
		Long: `Installs the daemon as a systemd user unit (Linux) or LaunchAgent
(macOS) so it starts with your session.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install and enable the service",
			RunE: func(cmd *cobra.Command, _ []string) error {
				mgr, err := service.NewManager()
				if err != nil {
					return err
				}
				executable, err := service.Executable()
				if err != nil {
					return err
				}
				if err := mgr.Install(executable); err != nil {
					return err
				}
				fmt.Printf("Service installed (%s).\n", mgr.Label())
				return nil
			},
		},
		&cobra.Command{
			Use:   "start",
			Short: "Start the service",
			RunE: func(cmd *cobra.Command, _ []string) error {
				mgr, err := service.NewManager()
				if err != nil {
					return err
				}
				return mgr.Start()
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the service",
			RunE: func(cmd *cobra.Command, _ []string) error {
				mgr, err := service.NewManager()
				if err != nil {
					return err
				}
				return mgr.Stop()
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show service status",
			RunE: func(cmd *cobra.Command, _ []string) error {
				mgr, err := service.NewManager()
				if err != nil {
					return err
				}
				installed, running, err := mgr.Status()
				if err != nil {
					return err
				}
				switch {
				case !installed:
					fmt.Println("Service is not installed.")
				case running:
					fmt.Printf("Service is installed and running (%s).\n", mgr.Label())
				default:
					fmt.Printf("Service is installed but not running (%s).\n", mgr.Label())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Stop and remove the service",
			RunE: func(cmd *cobra.Command, _ []string) error {
				mgr, err := service.NewManager()
				if err != nil {
					return err
				}
				if err := mgr.Uninstall(); err != nil {
					return err
				}
				fmt.Println("Service uninstalled.")
				return nil
			},
		},
	)
	return cmd
}
