package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ToursCollection   = "tours"
	UsersCollection   = "users"
	ReviewsCollection = "reviews"
)

const connectTimeout = 10 * time.Second

// Backend implements store.Backend on a MongoDB database.
type Backend struct {
	client  *mongo.Client
	tours   *TourStore
	users   *UserStore
	reviews *ReviewStore
	logger  *slog.Logger
}

// Ensure Backend implements store.Backend interface
var _ store.Backend = (*Backend)(nil)

// Open connects to the database described by cfg, verifies the connection
// and creates the indexes the stores rely on.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.DSN()).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	b := New(client.Database(cfg.Name), logger)
	b.client = client

	if err := b.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := EnsureIndexes(ctx, client.Database(cfg.Name)); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("connected to mongodb", slog.String("database", cfg.Name))
	return b, nil
}

// New creates a backend over an already connected database.
func New(db *mongo.Database, logger *slog.Logger) *Backend {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "mongodb"))

	return &Backend{
		client:  db.Client(),
		tours:   NewTourStore(db.Collection(ToursCollection), logger),
		users:   NewUserStore(db.Collection(UsersCollection), logger),
		reviews: NewReviewStore(db.Collection(ReviewsCollection), logger),
		logger:  logger,
	}
}

// Tours implements store.Backend.Tours.
func (b *Backend) Tours() store.TourStore { return b.tours }

// Users implements store.Backend.Users.
func (b *Backend) Users() store.UserStore { return b.users }

// Reviews implements store.Backend.Reviews.
func (b *Backend) Reviews() store.ReviewStore { return b.reviews }

// Ping implements store.Backend.Ping.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// Close implements store.Backend.Close.
func (b *Backend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// Import implements store.Seeder.Import. Without a replica set MongoDB has
// no multi-document transactions, so a failed import may leave earlier
// collections populated.
func (b *Backend) Import(ctx context.Context, data store.Dataset) error {
	steps := []struct {
		collection string
		insert     func() error
	}{
		{UsersCollection, func() error { return b.users.insertMany(ctx, data.Users) }},
		{ToursCollection, func() error { return b.tours.insertMany(ctx, data.Tours) }},
		{ReviewsCollection, func() error { return b.reviews.insertMany(ctx, data.Reviews) }},
	}
	for _, step := range steps {
		if err := step.insert(); err != nil {
			return &store.StoreError{Collection: step.collection, Operation: store.OpImport, Err: err}
		}
	}
	b.logger.Info("imported dataset",
		slog.Int("tours", len(data.Tours)),
		slog.Int("users", len(data.Users)),
		slog.Int("reviews", len(data.Reviews)))
	return nil
}

// Clear implements store.Seeder.Clear.
func (b *Backend) Clear(ctx context.Context) error {
	steps := []struct {
		collection string
		clear      func(context.Context) error
	}{
		{ReviewsCollection, b.reviews.clear},
		{ToursCollection, b.tours.clear},
		{UsersCollection, b.users.clear},
	}
	for _, step := range steps {
		if err := step.clear(ctx); err != nil {
			return &store.StoreError{Collection: step.collection, Operation: store.OpClear, Err: err}
		}
	}
	return nil
}

// indexes lists the indexes of each collection.
var indexes = map[string][]mongo.IndexModel{
	ToursCollection: {
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
		{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
	},
	UsersCollection: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "passwordResetToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	ReviewsCollection: {
		{Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
}

// EnsureIndexes creates the unique, sort and geospatial indexes. Existing
// indexes are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}
