// Package main implements the entry point for the tareas API server, which
// manages users' tasks and categories. The binary serves the HTTP API and
// runs database migrations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/tareas-api/internal/config"
	"github.com/phrazzld/tareas-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

const appName = "tareas-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Task management API server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
	)

	return cmd
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"timezone", cfg.Server.Timezone)
	log.Debug("Database configuration", "url", maskDatabaseURL(cfg.Database.URL))

	return cfg, log, nil
}
