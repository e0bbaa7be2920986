package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (c *catalog) reviewService() *service.ReviewService {
	return service.NewReviewService(c.backend.Reviews(), c.backend.Tours(), c.backend.Users(), logger.Discard())
}

func TestReviewServicePrepareCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("route tour and author win over the body", func(t *testing.T) {
		c := newCatalog(t)
		review := &domain.Review{Review: "Nice", Rating: 4, Tour: c.sea.ID, User: c.alice.ID}

		require.NoError(t, c.reviewService().PrepareCreate(ctx, review, &c.forest.ID, c.bob))

		assert.Equal(t, c.forest.ID, review.Tour)
		assert.Equal(t, c.bob.ID, review.User)
	})

	t.Run("body tour is kept without a route tour", func(t *testing.T) {
		c := newCatalog(t)
		review := &domain.Review{Review: "Nice", Rating: 4, Tour: c.sea.ID}

		require.NoError(t, c.reviewService().PrepareCreate(ctx, review, nil, c.bob))
		assert.Equal(t, c.sea.ID, review.Tour)
	})

	t.Run("unknown tour is a validation error", func(t *testing.T) {
		c := newCatalog(t)
		missing := primitive.NewObjectID()

		err := c.reviewService().PrepareCreate(ctx, &domain.Review{}, &missing, c.bob)

		var ve domain.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, domain.ValidationErrors{"Review must belong to a tour."}, ve)
	})

	t.Run("missing tour is left to validation", func(t *testing.T) {
		c := newCatalog(t)
		review := &domain.Review{}

		require.NoError(t, c.reviewService().PrepareCreate(ctx, review, nil, c.bob))
		assert.True(t, review.Tour.IsZero())
	})

	t.Run("store failures are wrapped", func(t *testing.T) {
		c := newCatalog(t)
		c.backend.TourStore.Errs["Get"] = errors.New("connection reset")

		err := c.reviewService().PrepareCreate(ctx, &domain.Review{}, &c.forest.ID, c.bob)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load reviewed tour")
	})
}

func TestReviewServiceCheckAuthor(t *testing.T) {
	c := newCatalog(t)
	svc := c.reviewService()
	admin := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{"author", c.alice, nil},
		{"admin", admin, nil},
		{"other user", c.bob, service.ErrNotOwned},
		{"anonymous", nil, service.ErrNotLoggedIn},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.CheckAuthor(tc.user, c.aliceOnForest)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestReviewServicePopulate(t *testing.T) {
	c := newCatalog(t)
	review := *c.aliceOnForest

	require.NoError(t, c.reviewService().Populate(context.Background(), &review))

	require.NotNil(t, review.Author)
	assert.Equal(t, c.alice.Name, review.Author.Name)
}

func TestReviewServiceUpdateTourRatings(t *testing.T) {
	ctx := context.Background()

	t.Run("averages the reviews of the tour", func(t *testing.T) {
		c := newCatalog(t)
		bobOnForest := &domain.Review{ID: primitive.NewObjectID(), Review: "Good", Rating: 4, Tour: c.forest.ID, User: c.bob.ID}
		bobOnForest.BeforeSave(fixedNow)
		require.NoError(t, c.backend.ReviewStore.Insert(bobOnForest))

		require.NoError(t, c.reviewService().UpdateTourRatings(ctx, c.forest.ID))

		tour, err := c.backend.TourStore.Get(ctx, c.forest.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, tour.RatingsQuantity)
		assert.InDelta(t, 4.5, tour.RatingsAverage, 1e-9)
		assert.Equal(t, 1, c.backend.TourStore.RatingUpdates(c.forest.ID))
	})

	t.Run("tour without reviews gets the defaults", func(t *testing.T) {
		c := newCatalog(t)

		require.NoError(t, c.reviewService().UpdateTourRatings(ctx, c.sea.ID))

		tour, err := c.backend.TourStore.Get(ctx, c.sea.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, tour.RatingsQuantity)
		assert.Equal(t, domain.DefaultRatingsAverage, tour.RatingsAverage)
	})

	t.Run("deleted tour is ignored", func(t *testing.T) {
		c := newCatalog(t)
		require.NoError(t, c.reviewService().UpdateTourRatings(ctx, primitive.NewObjectID()))
	})

	t.Run("stats failures are returned", func(t *testing.T) {
		c := newCatalog(t)
		c.backend.ReviewStore.Errs["RatingStats"] = errors.New("connection reset")

		err := c.reviewService().UpdateTourRatings(ctx, c.forest.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to compute tour ratings")
	})
}
