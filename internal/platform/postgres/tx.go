package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/store"
)

// inTx runs fn in a transaction that commits only if fn returns nil.
// Every failure is reported as store.ErrTransactionFailed. A panic in fn
// rolls the transaction back before it propagates.
func (b *Backend) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	log := logger.FromContextOrDefault(ctx, b.logger).With(slog.String("operation", op))

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %w", store.ErrTransactionFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: rethrown after rollback
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("error", err.Error()))
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		} else {
			log.Debug("rolled back transaction", slog.String("error", err.Error()))
		}
		return fmt.Errorf("%w: %w", store.ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %w", store.ErrTransactionFailed, err)
	}

	log.Debug("transaction committed")
	return nil
}
