package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReviewStore implements store.ReviewStore.
type ReviewStore struct {
	*Collection[domain.Review, *domain.Review]
}

// Ensure ReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore creates a review store over coll.
func NewReviewStore(coll *mongo.Collection, logger *slog.Logger) *ReviewStore {
	return &ReviewStore{
		Collection: NewCollection[domain.Review](coll, domain.ReviewSchema, logger),
	}
}

// RatingStats implements store.ReviewStore.RatingStats.
func (s *ReviewStore) RatingStats(ctx context.Context, tourID primitive.ObjectID) (domain.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}

	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("failed to compute rating stats: %w", MapError(s.Name(), err))
	}

	var rows []struct {
		NRating   int     `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.RatingStats{}, fmt.Errorf("failed to decode rating stats: %w", err)
	}
	if len(rows) == 0 {
		return domain.RatingStats{}, nil
	}
	return domain.RatingStats{Quantity: rows[0].NRating, Average: rows[0].AvgRating}, nil
}
