package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/tareas-api/internal/config"
	"github.com/phrazzld/tareas-api/internal/store"
)

// Open connects to PostgreSQL through the pgx database/sql driver,
// configures the connection pool and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns))
	return db, nil
}

// NewStores builds every store on the same connection or transaction.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Users:      NewPostgresUserStore(db, logger),
		Categories: NewPostgresCategoryStore(db, logger),
		Tasks:      NewPostgresTaskStore(db, logger),
	}
}

// Transactor runs store work inside a database transaction.
type Transactor struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ store.Transactor = (*Transactor)(nil)

// NewTransactor creates a Transactor for db.
func NewTransactor(db *sqlx.DB, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

// InTx implements store.Transactor. The stores passed to fn share one
// transaction, which is committed when fn returns nil.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, NewStores(tx, t.logger))
	})
}
