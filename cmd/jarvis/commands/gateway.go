package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jholhewres/jarvis/pkg/jarvis/gateway"
)

// newGatewayCmd creates `jarvis gateway`, the standalone HTTP server.
func newGatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the HTTP gateway in the foreground",
		Long: `Serves GET /health and POST /webhook on the configured address.
Use the daemon for the full supervised stack; this runs the gateway alone.`,
		RunE: runGateway,
	}
	cmd.Flags().String("host", "", "bind host (overrides config)")
	cmd.Flags().Int("port", 0, "bind port (overrides config)")
	return cmd
}

func runGateway(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	host := a.cfg.Gateway.Host
	port := a.cfg.Gateway.Port
	if flagHost, _ := cmd.Flags().GetString("host"); flagHost != "" {
		host = flagHost
	}
	if flagPort, _ := cmd.Flags().GetInt("port"); flagPort != 0 {
		port = flagPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = gateway.New(host, port, a.turn, a.logger).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
