package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TourIDParam is the path parameter naming the tour of nested review routes.
const TourIDParam = "tourId"

// ReviewHandler serves the review routes, both top level and nested under
// a tour.
type ReviewHandler struct {
	Resource[domain.Review, *domain.Review]
}

// NewReviewHandler creates a ReviewHandler. Every write recomputes the
// rating summary of the reviewed tour.
func NewReviewHandler(repo store.ReviewStore, reviews *service.ReviewService, now func() time.Time) *ReviewHandler {
	updateRatings := func(ctx context.Context, review *domain.Review) error {
		return reviews.UpdateTourRatings(ctx, review.Tour)
	}

	return &ReviewHandler{
		Resource: Resource[domain.Review, *domain.Review]{
			Name:     "review",
			Repo:     repo,
			Schema:   domain.ReviewSchema,
			Scope:    tourScope,
			Populate: reviews.Populate,
			PopulateOne: func(ctx context.Context, doc *domain.Review) error {
				return reviews.Populate(ctx, doc)
			},
			BeforeCreate: func(r *http.Request, doc *domain.Review) error {
				tourID, err := routeTourID(r)
				if err != nil {
					return err
				}
				author, _ := shared.GetUser(r.Context())
				return reviews.PrepareCreate(r.Context(), doc, tourID, author)
			},
			Authorize: func(r *http.Request, doc *domain.Review) error {
				user, _ := shared.GetUser(r.Context())
				return reviews.CheckAuthor(user, doc)
			},
			Preserve: func(stored, updated *domain.Review) {
				updated.Tour = stored.Tour
				updated.User = stored.User
				updated.CreatedAt = stored.CreatedAt
				updated.Version = stored.Version
			},
			AfterWrite:  updateRatings,
			AfterDelete: updateRatings,
			Now:         now,
		},
	}
}

// routeTourID returns the tour id of a nested route, or nil on top level
// routes.
func routeTourID(r *http.Request) (*primitive.ObjectID, error) {
	raw := chi.URLParam(r, TourIDParam)
	if raw == "" {
		return nil, nil
	}
	id, err := domain.ParseFieldID(TourIDParam, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func tourScope(r *http.Request) ([]query.Condition, error) {
	tourID, err := routeTourID(r)
	if err != nil || tourID == nil {
		return nil, err
	}
	return []query.Condition{{Field: "tour", Op: query.OpEq, Value: *tourID}}, nil
}
