package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time checks
var (
	_ store.TourStore   = (*TourStore)(nil)
	_ store.UserStore   = (*UserStore)(nil)
	_ store.ReviewStore = (*ReviewStore)(nil)
	_ store.Backend     = (*Backend)(nil)
)

// TourStore is an in-memory store.TourStore. Stats and MonthlyPlan are not
// computed in memory: they return the configured function's result, or
// empty results when it is nil. Within and Distances measure great-circle
// distances to the start locations unless their function is set.
type TourStore struct {
	*Repository[domain.Tour, *domain.Tour]

	StatsFn       func(ctx context.Context, minRating float64) ([]store.TourStats, error)
	MonthlyPlanFn func(ctx context.Context, year int) ([]store.MonthlyPlan, error)
	WithinFn      func(ctx context.Context, center domain.LatLng, radius float64) ([]*domain.Tour, error)
	DistancesFn   func(ctx context.Context, center domain.LatLng, multiplier float64) ([]store.TourDistance, error)

	mu      sync.Mutex
	ratings map[primitive.ObjectID]int
}

// NewTourStore creates an empty tour store with a unique name.
func NewTourStore() *TourStore {
	return &TourStore{
		Repository: NewRepository[domain.Tour]("tours", domain.TourSchema, []string{"name"}),
		ratings:    make(map[primitive.ObjectID]int),
	}
}

// Stats implements store.TourStore.
func (s *TourStore) Stats(ctx context.Context, minRating float64) ([]store.TourStats, error) {
	if s.StatsFn != nil {
		return s.StatsFn(ctx, minRating)
	}
	return []store.TourStats{}, nil
}

// MonthlyPlan implements store.TourStore.
func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]store.MonthlyPlan, error) {
	if s.MonthlyPlanFn != nil {
		return s.MonthlyPlanFn(ctx, year)
	}
	return []store.MonthlyPlan{}, nil
}

// Within implements store.TourStore.
func (s *TourStore) Within(ctx context.Context, center domain.LatLng, radius float64) ([]*domain.Tour, error) {
	if s.WithinFn != nil {
		return s.WithinFn(ctx, center, radius)
	}
	located, err := s.located(ctx, center)
	if err != nil {
		return nil, err
	}
	tours := []*domain.Tour{}
	for _, l := range located {
		if l.meters/domain.EarthRadiusMeters <= radius {
			tours = append(tours, l.tour)
		}
	}
	return tours, nil
}

// Distances implements store.TourStore.
func (s *TourStore) Distances(ctx context.Context, center domain.LatLng, multiplier float64) ([]store.TourDistance, error) {
	if s.DistancesFn != nil {
		return s.DistancesFn(ctx, center, multiplier)
	}
	located, err := s.located(ctx, center)
	if err != nil {
		return nil, err
	}
	distances := make([]store.TourDistance, 0, len(located))
	for _, l := range located {
		distances = append(distances, store.TourDistance{ID: l.tour.ID, Name: l.tour.Name, Distance: l.meters * multiplier})
	}
	return distances, nil
}

type locatedTour struct {
	tour   *domain.Tour
	meters float64
}

// located returns the visible tours with a start location, nearest to
// center first.
func (s *TourStore) located(ctx context.Context, center domain.LatLng) ([]locatedTour, error) {
	tours, err := s.Find(ctx, &query.Query{})
	if err != nil {
		return nil, err
	}
	located := make([]locatedTour, 0, len(tours))
	for _, t := range tours {
		if at, ok := t.StartLocation.LatLng(); ok {
			located = append(located, locatedTour{tour: t, meters: domain.HaversineMeters(center, at)})
		}
	}
	sort.Slice(located, func(i, j int) bool {
		if located[i].meters != located[j].meters {
			return located[i].meters < located[j].meters
		}
		return located[i].tour.ID.Hex() < located[j].tour.ID.Hex()
	})
	return located, nil
}

// SetRatings implements store.TourStore. Hidden tours are updated too.
func (s *TourStore) SetRatings(ctx context.Context, id primitive.ObjectID, quantity int, average float64) error {
	if err := s.fail("SetRatings"); err != nil {
		return err
	}
	tour, err := s.raw(id)
	if err != nil {
		return err
	}
	tour.RatingsQuantity = quantity
	tour.RatingsAverage = average
	s.mu.Lock()
	s.ratings[id]++
	s.mu.Unlock()
	return s.Replace(ctx, tour)
}

// RatingUpdates returns how many times SetRatings updated the tour.
func (s *TourStore) RatingUpdates(id primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings[id]
}

// UserStore is an in-memory store.UserStore.
type UserStore struct {
	*Repository[domain.User, *domain.User]
}

// NewUserStore creates an empty user store with a unique email.
func NewUserStore() *UserStore {
	return &UserStore{
		Repository: NewRepository[domain.User]("users", domain.UserSchema, []string{"email"}),
	}
}

// GetByEmail implements store.UserStore.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.FindOne(ctx, []query.Condition{
		{Field: "email", Op: query.OpEq, Value: strings.ToLower(strings.TrimSpace(email))},
	})
	return user, userNotFound(err)
}

// GetByResetToken implements store.UserStore.
func (s *UserStore) GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*domain.User, error) {
	user, err := s.FindOne(ctx, []query.Condition{
		{Field: "passwordResetToken", Op: query.OpEq, Value: hashedToken},
		{Field: "passwordResetExpires", Op: query.OpGt, Value: now},
	})
	return user, userNotFound(err)
}

// GetMany implements store.UserStore.
func (s *UserStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	in := make([]any, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	q := query.New(domain.UserSchema)
	q.Limit = len(ids)
	users, err := s.Find(ctx, q.Where(query.Condition{Field: query.IDField, Op: query.OpIn, Value: in}))
	if err != nil {
		return nil, err
	}
	return store.OrderByIDs(users, ids), nil
}

func userNotFound(err error) error {
	if store.IsNotFoundError(err) {
		return store.ErrUserNotFound
	}
	return err
}

// ReviewStore is an in-memory store.ReviewStore with one review per user
// and tour.
type ReviewStore struct {
	*Repository[domain.Review, *domain.Review]
}

// NewReviewStore creates an empty review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		Repository: NewRepository[domain.Review]("reviews", domain.ReviewSchema, []string{"tour", "user"}),
	}
}

// RatingStats implements store.ReviewStore.
func (s *ReviewStore) RatingStats(ctx context.Context, tourID primitive.ObjectID) (domain.RatingStats, error) {
	if err := s.fail("RatingStats"); err != nil {
		return domain.RatingStats{}, err
	}
	q := query.New(domain.ReviewSchema)
	q.Limit = s.Len() + 1
	reviews, err := s.Find(ctx, q.Where(query.Condition{Field: "tour", Op: query.OpEq, Value: tourID}))
	if err != nil {
		return domain.RatingStats{}, err
	}
	if len(reviews) == 0 {
		return domain.RatingStats{}, nil
	}

	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return domain.RatingStats{Quantity: len(reviews), Average: sum / float64(len(reviews))}, nil
}

// Backend is an in-memory store.Backend.
type Backend struct {
	TourStore   *TourStore
	UserStore   *UserStore
	ReviewStore *ReviewStore

	PingErr error
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		TourStore:   NewTourStore(),
		UserStore:   NewUserStore(),
		ReviewStore: NewReviewStore(),
	}
}

// Tours implements store.Backend.
func (b *Backend) Tours() store.TourStore { return b.TourStore }

// Users implements store.Backend.
func (b *Backend) Users() store.UserStore { return b.UserStore }

// Reviews implements store.Backend.
func (b *Backend) Reviews() store.ReviewStore { return b.ReviewStore }

// Ping implements store.Backend.
func (b *Backend) Ping(context.Context) error { return b.PingErr }

// Close implements store.Backend.
func (b *Backend) Close(context.Context) error { return nil }

// Import implements store.Seeder.
func (b *Backend) Import(_ context.Context, data store.Dataset) error {
	if err := b.UserStore.Insert(data.Users...); err != nil {
		return err
	}
	if err := b.TourStore.Insert(data.Tours...); err != nil {
		return err
	}
	return b.ReviewStore.Insert(data.Reviews...)
}

// Clear implements store.Seeder.
func (b *Backend) Clear(context.Context) error {
	b.TourStore.Clear()
	b.UserStore.Clear()
	b.ReviewStore.Clear()
	return nil
}
