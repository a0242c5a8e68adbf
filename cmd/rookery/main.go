package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacentio/rookery/internal/bootstrap"
	"github.com/jacentio/rookery/internal/config"
	"github.com/jacentio/rookery/inventory"
)

var (
	cfg        *config.Config
	configPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rookery",
		Short: "rookery: entity, environment and device inventory",
		Long:  "Search and write the Entity > Environment > Device inventory hierarchy.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.rookery/config.yaml)")

	rootCmd.AddCommand(
		searchCmd(),
		putCmd(),
	)
	return rootCmd
}

func newLogger() *slog.Logger {
	if cfg == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return cfg.Logging.NewLogger(os.Stderr)
}

func newService(ctx context.Context, logger *slog.Logger) (*inventory.Service, error) {
	return bootstrap.NewService(ctx, cfg, logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
