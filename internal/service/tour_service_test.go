package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/mocks"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type catalog struct {
	backend       *mocks.Backend
	lead, guide   *domain.User
	alice, bob    *domain.User
	forest, sea   *domain.Tour
	aliceOnForest *domain.Review
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()

	user := func(name, email string, role domain.Role) *domain.User {
		u := &domain.User{ID: primitive.NewObjectID(), Name: name, Email: email, Role: role}
		u.BeforeSave(fixedNow)
		return u
	}
	c := &catalog{
		backend: mocks.NewBackend(),
		lead:    user("Lead Guide", "lead@example.com", domain.RoleLeadGuide),
		guide:   user("Tour Guide", "guide@example.com", domain.RoleGuide),
		alice:   user("Alice Liddell", "alice@example.com", domain.RoleUser),
		bob:     user("Bob Herrera", "bob@example.com", domain.RoleUser),
	}

	c.forest = &domain.Tour{
		ID: primitive.NewObjectID(), Name: "The Forest Hiker", Duration: 5, MaxGroupSize: 25,
		Difficulty: "easy", Price: 397, Summary: "Breathtaking hike", ImageCover: "forest.jpg",
		Guides: []primitive.ObjectID{c.lead.ID, c.guide.ID},
	}
	c.sea = &domain.Tour{
		ID: primitive.NewObjectID(), Name: "The Sea Explorer", Duration: 7, MaxGroupSize: 15,
		Difficulty: "medium", Price: 497, Summary: "Exploring the sea", ImageCover: "sea.jpg",
		Guides: []primitive.ObjectID{c.lead.ID},
	}
	c.forest.BeforeSave(fixedNow)
	c.sea.BeforeSave(fixedNow)

	c.aliceOnForest = &domain.Review{
		ID: primitive.NewObjectID(), Review: "Loved it", Rating: 5, Tour: c.forest.ID, User: c.alice.ID,
	}
	c.aliceOnForest.BeforeSave(fixedNow)

	require.NoError(t, c.backend.Import(context.Background(), store.Dataset{
		Users:   []*domain.User{c.lead, c.guide, c.alice, c.bob},
		Tours:   []*domain.Tour{c.forest, c.sea},
		Reviews: []*domain.Review{c.aliceOnForest},
	}))
	return c
}

func (c *catalog) tourService() *service.TourService {
	return service.NewTourService(c.backend.Tours(), c.backend.Users(), c.backend.Reviews(), logger.Discard())
}

func TestTourServicePopulate(t *testing.T) {
	ctx := context.Background()

	t.Run("guides of many tours", func(t *testing.T) {
		c := newCatalog(t)
		svc := c.tourService()

		forest, sea := *c.forest, *c.sea
		require.NoError(t, svc.PopulateGuides(ctx, &forest, &sea))

		require.Len(t, forest.GuideDocs, 2)
		assert.Equal(t, c.lead.ID, forest.GuideDocs[0].ID)
		assert.Equal(t, c.guide.ID, forest.GuideDocs[1].ID)
		require.Len(t, sea.GuideDocs, 1)
		assert.Equal(t, "Lead Guide", sea.GuideDocs[0].Name)
	})

	t.Run("deactivated guides are left out", func(t *testing.T) {
		c := newCatalog(t)
		c.guide.Deactivate()
		require.NoError(t, c.backend.Users().Replace(ctx, c.guide))

		forest := *c.forest
		require.NoError(t, c.tourService().PopulateGuides(ctx, &forest))
		require.Len(t, forest.GuideDocs, 1)
		assert.Equal(t, c.lead.ID, forest.GuideDocs[0].ID)
	})

	t.Run("single tour gets reviews with authors", func(t *testing.T) {
		c := newCatalog(t)
		forest := *c.forest
		require.NoError(t, c.tourService().Populate(ctx, &forest))

		require.Len(t, forest.Reviews, 1)
		require.NotNil(t, forest.Reviews[0].Author)
		assert.Equal(t, "Alice Liddell", forest.Reviews[0].Author.Name)

		sea := *c.sea
		require.NoError(t, c.tourService().Populate(ctx, &sea))
		assert.Empty(t, sea.Reviews)
	})

	t.Run("store failures are wrapped", func(t *testing.T) {
		c := newCatalog(t)
		boom := errors.New("connection reset")
		c.backend.UserStore.Errs["Find"] = boom

		forest := *c.forest
		assert.ErrorIs(t, c.tourService().PopulateGuides(ctx, &forest), boom)
	})
}

func TestTourServiceReports(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	svc := c.tourService()

	t.Run("stats use the minimum rating", func(t *testing.T) {
		var gotMin float64
		c.backend.TourStore.StatsFn = func(_ context.Context, minRating float64) ([]store.TourStats, error) {
			gotMin = minRating
			return []store.TourStats{{Difficulty: "EASY", NumTours: 1}}, nil
		}

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Len(t, stats, 1)
		assert.Equal(t, store.StatsMinRating, gotMin)
	})

	t.Run("monthly plan rejects impossible years", func(t *testing.T) {
		_, err := svc.MonthlyPlan(ctx, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidYear)

		plan, err := svc.MonthlyPlan(ctx, 2021)
		require.NoError(t, err)
		assert.Empty(t, plan)
	})

	t.Run("within converts the radius", func(t *testing.T) {
		var gotRadius float64
		c.backend.TourStore.WithinFn = func(_ context.Context, _ domain.LatLng, radius float64) ([]*domain.Tour, error) {
			gotRadius = radius
			return nil, nil
		}

		_, err := svc.Within(ctx, 250, domain.LatLng{Lat: 34.1, Lng: -118.1}, domain.Miles)
		require.NoError(t, err)
		assert.InDelta(t, 250/3963.2, gotRadius, 1e-6)

		_, err = svc.Within(ctx, 0, domain.LatLng{}, domain.Kilometers)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("distances use the unit multiplier", func(t *testing.T) {
		tests := []struct {
			unit domain.Unit
			want float64
		}{
			{domain.Miles, 0.000621371},
			{domain.Kilometers, 0.001},
		}
		for _, tc := range tests {
			var got float64
			c.backend.TourStore.DistancesFn = func(_ context.Context, _ domain.LatLng, multiplier float64) ([]store.TourDistance, error) {
				got = multiplier
				return nil, nil
			}
			_, err := svc.Distances(ctx, domain.LatLng{}, tc.unit)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9, string(tc.unit))
		}
	})
}

func TestReviewService(t *testing.T) {
	ctx := context.Background()

	newSvc := func(c *catalog) *service.ReviewService {
		return service.NewReviewService(c.backend.Reviews(), c.backend.Tours(), c.backend.Users(), logger.Discard())
	}

	t.Run("prepare create takes the route tour and the author", func(t *testing.T) {
		c := newCatalog(t)
		review := &domain.Review{Review: "Nice", Rating: 4, Tour: c.forest.ID, User: c.alice.ID}

		require.NoError(t, newSvc(c).PrepareCreate(ctx, review, &c.sea.ID, c.bob))
		assert.Equal(t, c.sea.ID, review.Tour)
		assert.Equal(t, c.bob.ID, review.User)
	})

	t.Run("prepare create rejects unknown tours", func(t *testing.T) {
		c := newCatalog(t)
		missing := primitive.NewObjectID()
		err := newSvc(c).PrepareCreate(ctx, &domain.Review{}, &missing, c.bob)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("authorship", func(t *testing.T) {
		c := newCatalog(t)
		svc := newSvc(c)
		admin := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}

		assert.NoError(t, svc.CheckAuthor(c.alice, c.aliceOnForest))
		assert.NoError(t, svc.CheckAuthor(admin, c.aliceOnForest))
		assert.ErrorIs(t, svc.CheckAuthor(c.bob, c.aliceOnForest), service.ErrNotOwned)
		assert.ErrorIs(t, svc.CheckAuthor(nil, c.aliceOnForest), service.ErrNotLoggedIn)
	})

	t.Run("ratings follow the reviews", func(t *testing.T) {
		c := newCatalog(t)
		svc := newSvc(c)

		bobs := &domain.Review{Review: "Good", Rating: 4, Tour: c.forest.ID, User: c.bob.ID}
		bobs.BeforeSave(fixedNow.Add(time.Minute))
		require.NoError(t, c.backend.Reviews().Create(ctx, bobs))
		require.NoError(t, svc.UpdateTourRatings(ctx, c.forest.ID))

		tour, err := c.backend.Tours().Get(ctx, c.forest.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, tour.RatingsQuantity)
		assert.Equal(t, 4.5, tour.RatingsAverage)

		_, err = c.backend.Reviews().Delete(ctx, bobs.ID)
		require.NoError(t, err)
		_, err = c.backend.Reviews().Delete(ctx, c.aliceOnForest.ID)
		require.NoError(t, err)
		require.NoError(t, svc.UpdateTourRatings(ctx, c.forest.ID))

		tour, err = c.backend.Tours().Get(ctx, c.forest.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, tour.RatingsQuantity)
		assert.Equal(t, domain.DefaultRatingsAverage, tour.RatingsAverage)
	})

	t.Run("deleted tours are ignored", func(t *testing.T) {
		c := newCatalog(t)
		assert.NoError(t, newSvc(c).UpdateTourRatings(ctx, primitive.NewObjectID()))
	})

	t.Run("populate authors", func(t *testing.T) {
		c := newCatalog(t)
		orphan := &domain.Review{User: primitive.NewObjectID()}
		review := *c.aliceOnForest

		require.NoError(t, newSvc(c).Populate(ctx, &review, orphan))
		require.NotNil(t, review.Author)
		assert.Equal(t, c.alice.ID, review.Author.ID)
		assert.Nil(t, orphan.Author)
	})
}
