package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TourStore implements store.TourStore.
type TourStore struct {
	*Collection[domain.Tour, *domain.Tour]
}

// Ensure TourStore implements store.TourStore interface
var _ store.TourStore = (*TourStore)(nil)

// NewTourStore creates a tour store over coll.
func NewTourStore(coll *mongo.Collection, logger *slog.Logger) *TourStore {
	return &TourStore{
		Collection: NewCollection[domain.Tour](coll, domain.TourSchema, logger),
	}
}

// hiddenMatch is the $match stage excluding hidden tours from a pipeline.
func (s *TourStore) hiddenMatch() bson.D {
	return bson.D{{Key: "$match", Value: Filter(domain.TourSchema.Hidden)}}
}

// Stats implements store.TourStore.Stats.
func (s *TourStore) Stats(ctx context.Context, minRating float64) ([]store.TourStats, error) {
	pipeline := mongo.Pipeline{
		s.hiddenMatch(),
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": minRating}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}, {Key: "_id", Value: 1}}}},
	}

	stats := []store.TourStats{}
	if err := s.aggregate(ctx, pipeline, &stats); err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan implements store.TourStore.MonthlyPlan.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]store.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	pipeline := mongo.Pipeline{
		s.hiddenMatch(),
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: store.MonthlyPlanLimit}},
	}

	plan := []store.MonthlyPlan{}
	if err := s.aggregate(ctx, pipeline, &plan); err != nil {
		return nil, fmt.Errorf("failed to compute monthly plan: %w", err)
	}
	return plan, nil
}

// Within implements store.TourStore.Within.
func (s *TourStore) Within(ctx context.Context, center domain.LatLng, radius float64) ([]*domain.Tour, error) {
	filter := s.filter(nil)
	filter["startLocation"] = bson.M{
		"$geoWithin": bson.M{
			"$centerSphere": bson.A{center.GeoJSON(), radius},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: query.IDField, Value: 1}})
	return s.find(ctx, filter, opts)
}

// Distances implements store.TourStore.Distances.
func (s *TourStore) Distances(
	ctx context.Context,
	center domain.LatLng,
	multiplier float64,
) ([]store.TourDistance, error) {
	// $geoNear must be the first stage, so hidden tours are excluded by its
	// query instead of a $match.
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":               bson.M{"type": "Point", "coordinates": center.GeoJSON()},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"key":                "startLocation",
			"spherical":          true,
			"query":              Filter(domain.TourSchema.Hidden),
		}}},
		{{Key: "$project", Value: bson.M{"name": 1, "distance": 1}}},
	}

	distances := []store.TourDistance{}
	if err := s.aggregate(ctx, pipeline, &distances); err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", err)
	}
	return distances, nil
}

// SetRatings implements store.TourStore.SetRatings.
func (s *TourStore) SetRatings(ctx context.Context, id primitive.ObjectID, quantity int, average float64) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{query.IDField: id},
		bson.M{"$set": bson.M{"ratingsQuantity": quantity, "ratingsAverage": average}},
	)
	if err != nil {
		return fmt.Errorf("failed to set tour ratings: %w", MapError(s.Name(), err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: tour %s", store.ErrNotFound, id.Hex())
	}
	return nil
}

func (s *TourStore) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("aggregation failed", slog.String("error", err.Error()))
		return MapError(s.Name(), err)
	}
	return cur.All(ctx, out)
}
