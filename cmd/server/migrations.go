package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/phrazzld/tareas-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Database migration commands",
		Long:    `Apply, roll back or inspect the embedded database migrations.`,
	}

	shorts := map[string]string{
		"up":      "Apply all pending migrations",
		"down":    "Roll back the last migration",
		"reset":   "Roll back all migrations",
		"status":  "Print the status of every migration",
		"version": "Print the current schema version",
	}
	for _, name := range postgres.MigrationCommands {
		cmd.AddCommand(newMigrationSubcommand(configPath, name, shorts[name]))
	}

	return cmd
}

func newMigrationSubcommand(configPath *string, command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, log, err := initializeApp(*configPath)
			if err != nil {
				return err
			}

			db, err := postgres.Open(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error("Error closing database connection", "error", err)
				}
			}()

			if err := postgres.Migrate(ctx, db.DB, command, log); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return nil
		},
	}
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}

	if parsedURL.User == nil {
		return dbURL
	}
	if _, hasPassword := parsedURL.User.Password(); !hasPassword {
		return parsedURL.String()
	}

	// url.UserPassword would percent-encode the mask, so splice it in.
	user := url.User(parsedURL.User.Username()).String()
	parsedURL.User = nil
	rest := strings.TrimPrefix(parsedURL.String(), parsedURL.Scheme+"://")
	return parsedURL.Scheme + "://" + user + ":****@" + rest
}
