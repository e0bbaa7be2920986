package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/store"
)

// Connection pool settings.
const (
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
)

// Backend implements store.Backend on a PostgreSQL database.
type Backend struct {
	db      *sql.DB
	tours   *PostgresTourStore
	users   *PostgresUserStore
	reviews *PostgresReviewStore
	logger  *slog.Logger
}

// Ensure Backend implements store.Backend interface
var _ store.Backend = (*Backend)(nil)

// Open connects to the database described by cfg, verifies the connection
// and applies pending migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	b := New(db, logger)
	if err := b.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db, MigrateUp, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("connected to postgres")
	return b, nil
}

// New creates a backend over an open database handle.
func New(db *sql.DB, logger *slog.Logger) *Backend {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "postgres"))

	return &Backend{
		db:      db,
		tours:   NewPostgresTourStore(db, logger),
		users:   NewPostgresUserStore(db, logger),
		reviews: NewPostgresReviewStore(db, logger),
		logger:  logger,
	}
}

// DB returns the underlying database handle.
func (b *Backend) DB() *sql.DB { return b.db }

// Tours implements store.Backend.Tours.
func (b *Backend) Tours() store.TourStore { return b.tours }

// Users implements store.Backend.Users.
func (b *Backend) Users() store.UserStore { return b.users }

// Reviews implements store.Backend.Reviews.
func (b *Backend) Reviews() store.ReviewStore { return b.reviews }

// Ping implements store.Backend.Ping.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	return nil
}

// Close implements store.Backend.Close.
func (b *Backend) Close(context.Context) error {
	return b.db.Close()
}

// Import implements store.Seeder.Import. Every document is inserted in one
// transaction, so a failure leaves the tables as they were.
func (b *Backend) Import(ctx context.Context, data store.Dataset) error {
	failed := "dataset"
	err := b.inTx(ctx, store.OpImport, func(ctx context.Context, tx *sql.Tx) error {
		steps := []struct {
			table  string
			insert func() error
		}{
			{UsersTable, func() error { return b.users.WithTx(tx).insertMany(ctx, data.Users) }},
			{ToursTable, func() error { return b.tours.WithTx(tx).insertMany(ctx, data.Tours) }},
			{ReviewsTable, func() error { return b.reviews.WithTx(tx).insertMany(ctx, data.Reviews) }},
		}
		for _, step := range steps {
			if err := step.insert(); err != nil {
				failed = step.table
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &store.StoreError{Collection: failed, Operation: store.OpImport, Err: err}
	}

	b.logger.Info("imported dataset",
		slog.Int("tours", len(data.Tours)),
		slog.Int("users", len(data.Users)),
		slog.Int("reviews", len(data.Reviews)))
	return nil
}

// Clear implements store.Seeder.Clear.
func (b *Backend) Clear(ctx context.Context) error {
	tables := fmt.Sprintf("%s, %s, %s", ReviewsTable, ToursTable, UsersTable)
	err := b.inTx(ctx, store.OpClear, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "TRUNCATE "+tables)
		return err
	})
	if err != nil {
		return &store.StoreError{Collection: tables, Operation: store.OpClear, Err: err}
	}
	return nil
}
