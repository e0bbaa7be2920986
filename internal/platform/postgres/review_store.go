package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewsTable stores review documents.
const ReviewsTable = "reviews"

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	*Collection[domain.Review, *domain.Review]
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	return &PostgresReviewStore{
		Collection: NewCollection[domain.Review](db, ReviewsTable, domain.ReviewSchema, nil, logger),
	}
}

// RatingStats implements store.ReviewStore.RatingStats
func (s *PostgresReviewStore) RatingStats(ctx context.Context, tourID primitive.ObjectID) (domain.RatingStats, error) {
	stmt := fmt.Sprintf(`
		SELECT count(*), COALESCE(avg((doc ->> 'rating')::double precision), 0)
		FROM %s
		WHERE doc #>> '{tour,$oid}' = $1`, s.table)

	var stats domain.RatingStats
	if err := s.db.QueryRowContext(ctx, stmt, tourID.Hex()).Scan(&stats.Quantity, &stats.Average); err != nil {
		return domain.RatingStats{}, fmt.Errorf("failed to compute rating stats: %w", MapError(s.table, err))
	}
	return stats, nil
}
