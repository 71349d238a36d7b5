package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/channels"
	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/daemon"
	"github.com/jholhewres/jarvis/pkg/jarvis/doctor"
)

// newChannelCmd creates `jarvis channel` for the messaging transports.
func newChannelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage messaging channels",
		Long: `Lists, enables, and runs the messaging transports the agent
listens on.

Examples:
  jarvis channel list
  jarvis channel add discord
  jarvis channel start`,
	}

	cmd.AddCommand(
		newChannelListCmd(),
		newChannelStartCmd(),
		newChannelDoctorCmd(),
		newChannelAddCmd(),
		newChannelRemoveCmd(),
	)
	return cmd
}

func newChannelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channels and their configuration state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			state := "disabled"
			if cfg.Channels.Discord.Enabled {
				state = "enabled"
				if cfg.Channels.Discord.BotToken == "" {
					state = "enabled (missing bot token)"
				}
			}
			fmt.Printf("  %-10s %s\n", "discord", state)
			fmt.Printf("  %-10s always available via `jarvis channel start --cli`\n", "cli")
			return nil
		},
	}
}

func newChannelStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the configured channels in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			transports := configuredChannels(a)
			if useCLI, _ := cmd.Flags().GetBool("cli"); useCLI {
				transports = append(transports, channels.NewCLI(a.logger))
			}
			if len(transports) == 0 {
				return fmt.Errorf("no channels configured; run `jarvis channel add discord` or pass --cli")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = channels.NewManager(transports, a.turn, a.logger).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Bool("cli", false, "also listen on stdin")
	return cmd
}

func newChannelDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check channel health from the daemon state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			statePath, err := config.StateFilePath()
			if err != nil {
				return err
			}
			snap, writtenAt, err := daemon.ReadState(statePath)
			if err != nil {
				return fmt.Errorf("no daemon state; is the daemon running?")
			}

			found := false
			for _, check := range doctor.EvaluateState(snap, writtenAt, time.Now()) {
				if !strings.HasPrefix(check.Name, "channel:") {
					continue
				}
				found = true
				mark := "ok"
				if !check.OK {
					mark = "FAIL"
				}
				fmt.Printf("[%s] %-20s %s\n", mark, check.Name, check.Detail)
			}
			if !found {
				fmt.Println("No channel components in the daemon state.")
			}
			return nil
		},
	}
}

func newChannelAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add TYPE [JSON]",
		Short: "Enable a channel in config",
		Long: `Enables a channel, optionally with a JSON settings object.

Examples:
  jarvis channel add discord
  jarvis channel add discord '{"bot_token":"...","allowed_users":["123"]}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := ""
			if len(args) == 2 {
				settings = args[1]
			}
			return addChannel(args[0], settings)
		},
	}
}

func newChannelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Disable a channel in config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeChannel(args[0])
		},
	}
}

func addChannel(name, settings string) error {
	if strings.ToLower(name) != "discord" {
		return fmt.Errorf("unknown channel %q (supported: discord)", name)
	}

	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}

	cfg.Channels.Discord.Enabled = true
	if settings != "" {
		var opts struct {
			BotToken     string   `json:"bot_token"`
			AllowedUsers []string `json:"allowed_users"`
		}
		if err := json.Unmarshal([]byte(settings), &opts); err != nil {
			return fmt.Errorf("invalid channel settings JSON: %w", err)
		}
		if opts.BotToken != "" {
			cfg.Channels.Discord.BotToken = opts.BotToken
		}
		if len(opts.AllowedUsers) > 0 {
			cfg.Channels.Discord.AllowedUsers = opts.AllowedUsers
		}
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}
	if cfg.Channels.Discord.BotToken == "" {
		fmt.Println("Discord enabled. Set DISCORD_BOT_TOKEN and restart the daemon.")
	} else {
		fmt.Println("Discord enabled. Restart the daemon to connect.")
	}
	return nil
}

func removeChannel(name string) error {
	if strings.ToLower(name) != "discord" {
		return fmt.Errorf("unknown channel %q (supported: discord)", name)
	}

	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}

	cfg.Channels.Discord.Enabled = false
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Println("Discord disabled.")
	return nil
}
