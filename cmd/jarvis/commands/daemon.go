package commands

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/channels"
	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/cron"
	"github.com/jholhewres/jarvis/pkg/jarvis/daemon"
	"github.com/jholhewres/jarvis/pkg/jarvis/gateway"
	"github.com/jholhewres/jarvis/pkg/jarvis/heartbeat"
)

// newDaemonCmd creates `jarvis daemon`: the supervised background stack
// (gateway, scheduler, heartbeat, channels).
func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the background daemon",
		Long: `Starts the supervised stack: HTTP gateway, cron scheduler,
heartbeat worker, and messaging channels. Without --foreground the daemon
detaches and runs in the background.

Examples:
  jarvis daemon
  jarvis daemon --foreground
  jarvis daemon --stop`,
		RunE: runDaemon,
	}

	cmd.Flags().String("host", "", "gateway bind host (overrides config)")
	cmd.Flags().Int("port", 0, "gateway bind port (overrides config)")
	cmd.Flags().Bool("foreground", false, "run in the foreground instead of detaching")
	cmd.Flags().Bool("stop", false, "stop a running daemon")
	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	pidPath, err := config.PIDFilePath()
	if err != nil {
		return err
	}

	if stop, _ := cmd.Flags().GetBool("stop"); stop {
		if err := daemon.StopDaemon(pidPath); err != nil {
			return err
		}
		fmt.Println("Daemon stopped.")
		return nil
	}

	if foreground, _ := cmd.Flags().GetBool("foreground"); foreground {
		return runDaemonForeground(cmd)
	}
	return spawnDaemon(cmd, pidPath)
}

// spawnDaemon re-executes the binary detached with --foreground.
func spawnDaemon(cmd *cobra.Command, pidPath string) error {
	if daemon.IsRunning(pidPath) {
		return fmt.Errorf("daemon already running")
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable: %w", err)
	}

	args := []string{"daemon", "--foreground"}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		args = append(args, "--host", host)
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		args = append(args, "--port", fmt.Sprint(port))
	}

	child := exec.Command(executable, args...)
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	child.Stdout = nil
	child.Stderr = nil
	if err := child.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	fmt.Printf("Daemon started (pid %d).\n", child.Process.Pid)
	return nil
}

func runDaemonForeground(cmd *cobra.Command) error {
	flagHost, _ := cmd.Flags().GetString("host")
	flagPort, _ := cmd.Flags().GetInt("port")

	a, err := newApp(cmd, func(cfg *config.Config) {
		if flagHost != "" {
			cfg.Gateway.Host = flagHost
		}
		if flagPort != 0 {
			cfg.Gateway.Port = flagPort
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := cron.Open(a.workspace)
	if err != nil {
		return err
	}
	defer store.Close()

	components := map[string]daemon.Component{
		"gateway":   gateway.New(a.cfg.Gateway.Host, a.cfg.Gateway.Port, a.turn, a.logger).Run,
		"scheduler": cron.NewScheduler(store, a.logger).Run,
	}
	var disabled []string

	if a.cfg.Heartbeat.Enabled {
		worker := heartbeat.NewWorker(a.workspace, a.cfg.Heartbeat.IntervalMinutes, a.turn, a.logger)
		components["heartbeat"] = worker.Run
	} else {
		disabled = append(disabled, "heartbeat")
	}

	if transports := configuredChannels(a); len(transports) > 0 {
		manager := channels.NewManager(transports, a.turn, a.logger)
		components["channels"] = manager.Run
	} else {
		disabled = append(disabled, "channels")
		a.logger.Info("no channels configured, channel supervisor disabled")
	}

	pidPath, err := config.PIDFilePath()
	if err != nil {
		return err
	}
	statePath, err := config.StateFilePath()
	if err != nil {
		return err
	}

	return daemon.New(daemon.Options{
		PIDFilePath:    pidPath,
		StateFilePath:  statePath,
		Components:     components,
		Disabled:       disabled,
		InitialBackoff: time.Duration(a.cfg.Reliability.InitialBackoffSeconds) * time.Second,
		MaxBackoff:     time.Duration(a.cfg.Reliability.MaxBackoffSeconds) * time.Second,
		Logger:         a.logger,
	}).Run(cmd.Context())
}

// configuredChannels builds the enabled transports from config.
func configuredChannels(a *app) []channels.Channel {
	var out []channels.Channel
	if a.cfg.Channels.Discord.Enabled {
		out = append(out, channels.NewDiscord(channels.DiscordConfig{
			BotToken:     a.cfg.Channels.Discord.BotToken,
			AllowedUsers: a.cfg.Channels.Discord.AllowedUsers,
		}, a.logger))
	}
	return out
}
