package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/agent"
	"github.com/jholhewres/jarvis/pkg/jarvis/channels"
	"github.com/jholhewres/jarvis/pkg/jarvis/config"
	"github.com/jholhewres/jarvis/pkg/jarvis/memory"
	"github.com/jholhewres/jarvis/pkg/jarvis/observability"
	"github.com/jholhewres/jarvis/pkg/jarvis/provider"
	"github.com/jholhewres/jarvis/pkg/jarvis/runtime"
	"github.com/jholhewres/jarvis/pkg/jarvis/security"
	"github.com/jholhewres/jarvis/pkg/jarvis/tools"
)

// app bundles the wired-up runtime shared by the CLI commands that run
// agent turns: provider, tools, memory, and the session runner.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	workspace string
	registry  *tools.Registry
	memory    memory.Memory
	runner    *agent.Runner
}

// loadConfig loads config and builds the logger; shared by commands that do
// not need the full agent stack.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger := config.NewLogger(cfg.Logging, verbose)
	return cfg, logger, nil
}

// newApp wires the full agent stack from config. mutate runs before any
// component is constructed so commands can apply flag overrides.
func newApp(cmd *cobra.Command, mutate func(*config.Config)) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}

	config.ResolveAPIKey(cfg, logger)

	workspace, err := cfg.Workspace()
	if err != nil {
		return nil, err
	}

	settings := provider.Settings{
		Provider:      cfg.Provider.Name,
		BaseURL:       cfg.Provider.BaseURL,
		APIKey:        cfg.Provider.APIKey,
		AuthStyle:     cfg.Provider.AuthStyle,
		AuthHeader:    cfg.Provider.AuthHeader,
		Model:         cfg.Provider.Model,
		RetryAttempts: cfg.Reliability.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Reliability.RetryBackoffSeconds) * time.Second,
	}
	prov, err := provider.CreateResilient(settings, logger)
	if err != nil {
		return nil, err
	}
	model := settings.DefaultModel()
	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %q", cfg.Provider.Name)
	}

	// Best-effort connection warmup so the first turn doesn't pay the
	// TLS handshake.
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := prov.Warmup(warmCtx); err != nil {
			logger.Debug("provider warmup failed", "error", err)
		}
	}()

	sec := security.FromConfig(security.AutonomySettings{
		MaxActionsPerHour: cfg.Autonomy.MaxActionsPerHour,
		WorkspaceOnly:     cfg.Autonomy.WorkspaceOnly,
		AllowedCommands:   cfg.Autonomy.AllowedCommands,
	}, workspace)

	rt, err := runtime.Create(cfg.Runtime.Kind)
	if err != nil {
		return nil, err
	}

	mem, err := memory.New(memory.Settings{
		Backend:  cfg.Memory.Backend,
		AutoSave: cfg.Memory.AutoSave,
	}, workspace, logger)
	if err != nil {
		return nil, err
	}

	registry, err := tools.Builtin(cfg, sec, rt, mem, logger)
	if err != nil {
		mem.Close()
		return nil, err
	}

	systemPrompt, err := channels.BuildSystemPrompt(workspace, registry)
	if err != nil {
		mem.Close()
		return nil, err
	}

	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	obs := observability.New(verbose || cfg.Logging.Level == "debug", logger)

	loop := agent.NewLoop(agent.LoopOptions{
		Provider:      prov,
		Registry:      registry,
		Model:         model,
		Temperature:   cfg.Provider.Temperature,
		MaxIterations: cfg.Autonomy.MaxToolIterations,
		Security:      sec,
		Observer:      obs,
		Logger:        logger,
	})

	runner := agent.NewRunner(agent.RunnerOptions{
		Loop:         loop,
		Memory:       mem,
		Observer:     obs,
		SystemPrompt: systemPrompt,
		MaxTurns:     cfg.Autonomy.MaxHistoryTurns,
		AutoSave:     cfg.Memory.AutoSave,
		Logger:       logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		workspace: workspace,
		registry:  registry,
		memory:    mem,
		runner:    runner,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.memory != nil {
		a.memory.Close()
	}
}

// turn exposes the one-shot turn for gateway, heartbeat and channels.
func (a *app) turn(ctx context.Context, session, message string) (string, error) {
	return a.runner.RunOnce(ctx, session, message)
}
