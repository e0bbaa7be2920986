package store

import (
	"context"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourStats is one difficulty group of the tour statistics report.
type TourStats struct {
	Difficulty string  `json:"_id" bson:"_id"`
	NumTours   int     `json:"numTours" bson:"numTours"`
	NumRatings int     `json:"numRatings" bson:"numRatings"`
	AvgRating  float64 `json:"avgRating" bson:"avgRating"`
	AvgPrice   float64 `json:"avgPrice" bson:"avgPrice"`
	MinPrice   float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice   float64 `json:"maxPrice" bson:"maxPrice"`
}

// MonthlyPlan lists the tours starting in one month of a year.
type MonthlyPlan struct {
	Month         int      `json:"month" bson:"month"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours" bson:"tours"`
}

// TourDistance is a tour's distance from a point, in the requested unit.
type TourDistance struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Distance float64            `json:"distance" bson:"distance"`
}

// Report limits shared by backends.
const (
	// StatsMinRating is the lowest ratingsAverage included in tour stats.
	StatsMinRating = 4.5

	// MonthlyPlanLimit caps the months returned by MonthlyPlan.
	MonthlyPlanLimit = 12
)

// TourStore defines the interface for tour data persistence.
type TourStore interface {
	Repository[domain.Tour]

	// Stats groups tours rated at least minRating by difficulty, ordered by
	// average price.
	Stats(ctx context.Context, minRating float64) ([]TourStats, error)

	// MonthlyPlan counts tour starts per month of year, busiest month first.
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlan, error)

	// Within returns the tours whose start location lies within radius
	// radians of center.
	Within(ctx context.Context, center domain.LatLng, radius float64) ([]*domain.Tour, error)

	// Distances returns every tour's distance from center, nearest first.
	// Distances in meters are multiplied by multiplier.
	Distances(ctx context.Context, center domain.LatLng, multiplier float64) ([]TourDistance, error)

	// SetRatings stores the review summary of a tour.
	SetRatings(ctx context.Context, id primitive.ObjectID, quantity int, average float64) error
}

// UserStore defines the interface for user data persistence.
type UserStore interface {
	Repository[domain.User]

	// GetByEmail retrieves an active user, including the password hash.
	// Returns ErrUserNotFound if no active user has that email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetToken retrieves the user holding the hashed reset token,
	// provided it has not expired at now.
	// Returns ErrUserNotFound otherwise.
	GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*domain.User, error)

	// GetMany retrieves the active users among ids. Missing ids are skipped.
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error)
}

// ReviewStore defines the interface for review data persistence.
type ReviewStore interface {
	Repository[domain.Review]

	// RatingStats summarizes the reviews of a tour.
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (domain.RatingStats, error)
}

// Dataset is a set of documents loaded together.
type Dataset struct {
	Tours   []*domain.Tour
	Users   []*domain.User
	Reviews []*domain.Review
}

// Seeder bulk loads and clears the collections.
type Seeder interface {
	// Import inserts every document of data, keeping their ids.
	Import(ctx context.Context, data Dataset) error

	// Clear deletes every document from every collection.
	Clear(ctx context.Context) error
}

// Backend is an opened database exposing every collection.
type Backend interface {
	Seeder

	Tours() TourStore
	Users() UserStore
	Reviews() ReviewStore

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the database connection.
	Close(ctx context.Context) error
}
