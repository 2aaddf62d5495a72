package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	apiMiddleware "github.com/phrazzld/tareas-api/internal/api/middleware"
	"github.com/phrazzld/tareas-api/internal/config"
	"github.com/phrazzld/tareas-api/internal/platform/postgres"
	"github.com/phrazzld/tareas-api/internal/service"
	"github.com/phrazzld/tareas-api/internal/service/auth"
	"github.com/phrazzld/tareas-api/internal/store"
	"github.com/spf13/cobra"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the stores are not backed by PostgreSQL.
	db *sqlx.DB

	tokenService    auth.TokenService
	userService     service.UserService
	taskService     service.TaskService
	categoryService service.CategoryService

	authGate *apiMiddleware.AuthGate
	metrics  *apiMiddleware.Metrics
}

// newApplication creates a new application instance with all dependencies initialized.
// Every store in stores must share the connection that tx opens transactions on.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	stores store.Stores,
	tx store.Transactor,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var err error
	app.tokenService, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("Token service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	clock := []service.Option{service.WithLocation(cfg.Server.Location())}

	app.userService, err = service.NewUserService(
		stores.Users,
		tx,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		logger,
		clock...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(stores, logger, clock...)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.categoryService, err = service.NewCategoryService(stores, tx, logger, clock...)
	if err != nil {
		return nil, fmt.Errorf("failed to create category service: %w", err)
	}

	app.authGate = apiMiddleware.NewAuthGate(app.tokenService, stores.Users, logger)
	app.metrics = apiMiddleware.NewMetrics()

	logger.Info("Application initialized successfully")
	return app, nil
}

// newServeCommand returns the command that runs the HTTP server against
// PostgreSQL.
func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, logger, err := initializeApp(configPath)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db.DB, "up", logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(cfg, logger, postgres.NewStores(db, logger), postgres.NewTransactor(db, logger))
	if err != nil {
		_ = db.Close()
		return err
	}
	app.db = db

	return app.Run(ctx)
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
