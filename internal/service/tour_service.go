package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourService populates tour relations and computes the tour reports.
type TourService struct {
	tours   store.TourStore
	users   store.UserStore
	reviews store.ReviewStore
	logger  *slog.Logger
}

// NewTourService creates a new TourService.
func NewTourService(tours store.TourStore, users store.UserStore, reviews store.ReviewStore, logger *slog.Logger) *TourService {
	return &TourService{
		tours:   tours,
		users:   users,
		reviews: reviews,
		logger:  logger.With("component", "tour_service"),
	}
}

// PopulateGuides replaces the guide ids of every tour with the public part
// of the guide documents. Guides that no longer exist are left out.
func (s *TourService) PopulateGuides(ctx context.Context, tours ...*domain.Tour) error {
	var ids []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)
	for _, t := range tours {
		for _, id := range t.Guides {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	guides, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to populate guides: %w", err)
	}
	byID := make(map[primitive.ObjectID]*domain.User, len(guides))
	for _, g := range guides {
		byID[g.ID] = g
	}

	for _, t := range tours {
		t.GuideDocs = make([]*domain.Guide, 0, len(t.Guides))
		for _, id := range t.Guides {
			if g, ok := byID[id]; ok {
				t.GuideDocs = append(t.GuideDocs, domain.GuideOf(g))
			}
		}
	}
	return nil
}

// Populate fills the guides and reviews of a single tour.
func (s *TourService) Populate(ctx context.Context, tour *domain.Tour) error {
	if err := s.PopulateGuides(ctx, tour); err != nil {
		return err
	}

	q := query.New(domain.ReviewSchema)
	q.Limit = query.MaxLimit
	reviews, err := s.reviews.Find(ctx, q.Where(query.Condition{Field: "tour", Op: query.OpEq, Value: tour.ID}))
	if err != nil {
		return fmt.Errorf("failed to populate reviews: %w", err)
	}
	if err := PopulateAuthors(ctx, s.users, reviews...); err != nil {
		return err
	}
	tour.Reviews = reviews
	return nil
}

// Stats returns the statistics of well rated tours per difficulty.
func (s *TourService) Stats(ctx context.Context) ([]store.TourStats, error) {
	stats, err := s.tours.Stats(ctx, store.StatsMinRating)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tour stats: %w", err)
	}
	return stats, nil
}

// MonthlyPlan returns the tour starts per month of year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]store.MonthlyPlan, error) {
	if year < 1 || year > 9999 {
		return nil, domain.ErrInvalidYear
	}
	plan, err := s.tours.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly plan: %w", err)
	}
	return plan, nil
}

// Within returns the tours starting within distance of center, measured in
// unit.
func (s *TourService) Within(ctx context.Context, distance float64, center domain.LatLng, unit domain.Unit) ([]*domain.Tour, error) {
	if distance <= 0 {
		return nil, domain.ValidationErrors{"Please provide a positive distance."}
	}
	tours, err := s.tours.Within(ctx, center, unit.RadiusRadians(distance))
	if err != nil {
		return nil, fmt.Errorf("failed to find tours within radius: %w", err)
	}
	return tours, nil
}

// Distances returns the distance of every tour from center, in unit.
func (s *TourService) Distances(ctx context.Context, center domain.LatLng, unit domain.Unit) ([]store.TourDistance, error) {
	distances, err := s.tours.Distances(ctx, center, unit.FromMeters())
	if err != nil {
		return nil, fmt.Errorf("failed to compute distances: %w", err)
	}
	return distances, nil
}

// PopulateAuthors sets the author of every review. Reviews whose user no
// longer exists keep their user id.
func PopulateAuthors(ctx context.Context, users store.UserStore, reviews ...*domain.Review) error {
	var ids []primitive.ObjectID
	seen := make(map[primitive.ObjectID]bool)
	for _, r := range reviews {
		if !seen[r.User] {
			seen[r.User] = true
			ids = append(ids, r.User)
		}
	}

	authors, err := users.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to populate review authors: %w", err)
	}
	byID := make(map[primitive.ObjectID]*domain.User, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}
	for _, r := range reviews {
		if a, ok := byID[r.User]; ok {
			r.Author = domain.AuthorOf(a)
		}
	}
	return nil
}
