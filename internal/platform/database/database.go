// Package database opens the store.Backend selected by the configuration.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/platform/mongodb"
	"github.com/phrazzld/natours-api/internal/platform/postgres"
	"github.com/phrazzld/natours-api/internal/store"
)

// connectTimeout bounds the initial connection and migration.
const connectTimeout = 30 * time.Second

// Open connects to the database selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (store.Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverMongo:
		b, err := mongodb.Open(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongodb backend: %w", err)
		}
		return b, nil
	case config.DriverPostgres:
		b, err := postgres.Open(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
