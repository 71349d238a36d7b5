package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/heartbeat"
	"github.com/jholhewres/jarvis/pkg/jarvis/provider"
)

// newOnboardCmd creates `jarvis onboard`, the first-run setup.
func newOnboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Set up jarvis for first use",
		Long: `Writes the initial config.yaml. Without flags a default config is
created and the next steps are printed; --interactive walks through provider,
API key, and channel setup.

Examples:
  jarvis onboard
  jarvis onboard --interactive
  jarvis onboard --channels-only`,
		RunE: runOnboard,
	}

	cmd.Flags().Bool("interactive", false, "walk through setup with prompts")
	cmd.Flags().Bool("channels-only", false, "only configure messaging channels")
	return cmd
}

func runOnboard(cmd *cobra.Command, _ []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	channelsOnly, _ := cmd.Flags().GetBool("channels-only")

	if !interactive && !channelsOnly {
		return onboardDefaults(path)
	}

	cfg := config.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return err
		}
	}

	if !channelsOnly {
		if err := onboardProvider(cfg); err != nil {
			return err
		}
	}
	if err := onboardChannels(cfg); err != nil {
		return err
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}
	if err := scaffoldWorkspace(cfg); err != nil {
		return err
	}
	fmt.Printf("Config written to %s.\n", path)
	fmt.Println("Try it: jarvis agent -m \"hello\"")
	return nil
}

// onboardDefaults writes the default config without prompting.
func onboardDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s.\n", path)
		fmt.Println("Run `jarvis onboard --interactive` to reconfigure.")
		return nil
	}

	cfg := config.DefaultConfig()
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	if err := scaffoldWorkspace(cfg); err != nil {
		return err
	}
	fmt.Printf("Default config written to %s.\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. export JARVIS_API_KEY=<your key> (openrouter by default)")
	fmt.Println("  2. jarvis agent -m \"hello\"")
	fmt.Println("  3. jarvis onboard --interactive for channels, vault, and more")
	return nil
}

// scaffoldWorkspace creates the workspace directory and its template files.
func scaffoldWorkspace(cfg *config.Config) error {
	workspace, err := cfg.Workspace()
	if err != nil {
		return err
	}
	return heartbeat.EnsureFile(workspace)
}

// onboardProvider prompts for provider, API key, and key storage.
func onboardProvider(cfg *config.Config) error {
	providerName := cfg.Provider.Name
	model := cfg.Provider.Model
	apiKey := ""
	storage := "keyring"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LLM provider").
				Options(huh.NewOptions(provider.Known()...)...).
				Value(&providerName),
			huh.NewInput().
				Title("API key").
				Description("Leave empty to keep using JARVIS_API_KEY from the environment.").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the provider default.").
				Value(&model),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the API key be stored?").
				Options(
					huh.NewOption("OS keyring", "keyring"),
					huh.NewOption("Encrypted vault (password protected)", "vault"),
					huh.NewOption("Environment only (do not store)", "env"),
				).
				Value(&storage),
		).WithHideFunc(func() bool { return apiKey == "" }),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg.Provider.Name = providerName
	cfg.Provider.Model = model

	if apiKey == "" {
		return nil
	}
	return storeAPIKey(apiKey, storage)
}

func storeAPIKey(apiKey, storage string) error {
	switch storage {
	case "keyring":
		if err := config.StoreKeyring("api_key", apiKey); err != nil {
			return fmt.Errorf("storing key in OS keyring: %w", err)
		}
		fmt.Println("API key stored in the OS keyring.")
	case "vault":
		vaultPath, err := config.VaultPath()
		if err != nil {
			return err
		}
		vault := config.NewVault(vaultPath)
		password, err := config.ReadPassword("Vault password: ")
		if err != nil {
			return err
		}
		if vault.Exists() {
			if err := vault.Unlock(password); err != nil {
				return err
			}
		} else {
			if err := vault.Create(password); err != nil {
				return err
			}
		}
		if err := vault.Set("api_key", apiKey); err != nil {
			return err
		}
		vault.Lock()
		fmt.Println("API key stored in the encrypted vault.")
	case "env":
		fmt.Println("Key not stored. Export JARVIS_API_KEY before running the agent.")
	}
	return nil
}

// onboardChannels prompts for the messaging transports.
func onboardChannels(cfg *config.Config) error {
	enableDiscord := cfg.Channels.Discord.Enabled
	botToken := cfg.Channels.Discord.BotToken

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable the Discord channel?").
				Value(&enableDiscord),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Discord bot token").
				Description("Leave empty to use DISCORD_BOT_TOKEN from the environment.").
				EchoMode(huh.EchoModePassword).
				Value(&botToken),
		).WithHideFunc(func() bool { return !enableDiscord }),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	cfg.Channels.Discord.Enabled = enableDiscord
	cfg.Channels.Discord.BotToken = botToken
	return nil
}
