package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewService keeps review authorship and tour ratings consistent.
type ReviewService struct {
	reviews store.ReviewStore
	tours   store.TourStore
	users   store.UserStore
	logger  *slog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviews store.ReviewStore, tours store.TourStore, users store.UserStore, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		tours:   tours,
		users:   users,
		logger:  logger.With("component", "review_service"),
	}
}

// PrepareCreate fills the review's tour and user. A tour id from the route
// wins over the body; the user is always the author.
func (s *ReviewService) PrepareCreate(ctx context.Context, review *domain.Review, tourID *primitive.ObjectID, author *domain.User) error {
	if tourID != nil {
		review.Tour = *tourID
	}
	if author != nil {
		review.User = author.ID
	}
	if review.Tour.IsZero() {
		return nil
	}
	if _, err := s.tours.Get(ctx, review.Tour); err != nil {
		if store.IsNotFoundError(err) {
			return domain.ValidationErrors{"Review must belong to a tour."}
		}
		return fmt.Errorf("failed to load reviewed tour: %w", err)
	}
	return nil
}

// CheckAuthor fails with ErrNotOwned unless user wrote the review or is an
// admin.
func (s *ReviewService) CheckAuthor(user *domain.User, review *domain.Review) error {
	if user == nil {
		return ErrNotLoggedIn
	}
	if user.HasRole(domain.RoleAdmin) || review.User == user.ID {
		return nil
	}
	return ErrNotOwned
}

// Populate sets the author of every review.
func (s *ReviewService) Populate(ctx context.Context, reviews ...*domain.Review) error {
	return PopulateAuthors(ctx, s.users, reviews...)
}

// UpdateTourRatings recomputes the rating summary of a tour from its
// reviews. A tour without reviews gets the default summary. A deleted tour
// is ignored.
func (s *ReviewService) UpdateTourRatings(ctx context.Context, tourID primitive.ObjectID) error {
	stats, err := s.reviews.RatingStats(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to compute tour ratings: %w", err)
	}

	quantity, average := domain.TourRatings(stats)
	if err := s.tours.SetRatings(ctx, tourID, quantity, average); err != nil {
		if store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Debug("ratings not stored: tour no longer exists",
				"tour_id", tourID.Hex())
			return nil
		}
		return fmt.Errorf("failed to store tour ratings: %w", err)
	}
	return nil
}
