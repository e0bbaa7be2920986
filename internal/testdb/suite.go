//go:build integration

package testdb

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RunBackendSuite loads fresh fixtures into backend and checks every store
// operation against them. Read-only checks run before the ones that write.
func RunBackendSuite(t *testing.T, backend store.Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, backend.Clear(ctx))
	f := NewFixtures()
	require.NoError(t, backend.Import(ctx, f.Dataset))
	t.Cleanup(func() { _ = backend.Clear(context.Background()) })

	tours := backend.Tours()
	users := backend.Users()
	reviews := backend.Reviews()

	parse := func(t *testing.T, raw string, schema query.Schema) *query.Query {
		t.Helper()
		values, err := url.ParseQuery(raw)
		require.NoError(t, err)
		q, err := query.Parse(values, schema)
		require.NoError(t, err)
		return q
	}
	names := func(docs []*domain.Tour) []string {
		out := make([]string, len(docs))
		for i, d := range docs {
			out[i] = d.Name
		}
		return out
	}

	t.Run("default query hides secret tours and sorts newest first", func(t *testing.T) {
		got, err := tours.Find(ctx, query.New(domain.TourSchema))
		require.NoError(t, err)
		assert.Equal(t, []string{
			f.CityWanderer.Name, f.SnowAdventurer.Name, f.SeaExplorer.Name, f.ForestHiker.Name,
		}, names(got))
	})

	t.Run("range filter", func(t *testing.T) {
		got, err := tours.Find(ctx, parse(t, "price[gte]=500&sort=price", domain.TourSchema))
		require.NoError(t, err)
		assert.Equal(t, []string{f.SnowAdventurer.Name, f.CityWanderer.Name}, names(got))
	})

	t.Run("repeated whitelisted parameter", func(t *testing.T) {
		got, err := tours.Find(ctx, parse(t, "difficulty=easy&difficulty=medium&sort=price", domain.TourSchema))
		require.NoError(t, err)
		assert.Equal(t, []string{f.ForestHiker.Name, f.SeaExplorer.Name, f.CityWanderer.Name}, names(got))
	})

	t.Run("array fields match any element", func(t *testing.T) {
		got, err := tours.Find(ctx, parse(t, "startDates[gte]=2022-01-01", domain.TourSchema))
		require.NoError(t, err)
		assert.Equal(t, []string{f.SnowAdventurer.Name}, names(got))

		got, err = tours.Find(ctx, parse(t, "guides="+f.Guide.ID.Hex(), domain.TourSchema))
		require.NoError(t, err)
		assert.Equal(t, []string{f.ForestHiker.Name}, names(got))
	})

	t.Run("filtering on a hidden field cannot reveal hidden tours", func(t *testing.T) {
		got, err := tours.Find(ctx, parse(t, "secretTour=true", domain.TourSchema))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("pages do not overlap", func(t *testing.T) {
		var seen []string
		for page := 1; page <= 3; page++ {
			got, err := tours.Find(ctx, parse(t, "sort=difficulty&limit=2&page="+string(rune('0'+page)), domain.TourSchema))
			require.NoError(t, err)
			if page == 3 {
				assert.Empty(t, got, "a page past the end is empty")
				continue
			}
			require.Len(t, got, 2)
			seen = append(seen, names(got)...)
		}
		assert.ElementsMatch(t, []string{
			f.ForestHiker.Name, f.SeaExplorer.Name, f.SnowAdventurer.Name, f.CityWanderer.Name,
		}, seen)
	})

	t.Run("count", func(t *testing.T) {
		n, err := tours.Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		n, err = tours.Count(ctx, []query.Condition{{Field: "difficulty", Op: query.OpEq, Value: "easy"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("get", func(t *testing.T) {
		got, err := tours.Get(ctx, f.ForestHiker.ID)
		require.NoError(t, err)
		assert.Equal(t, f.ForestHiker.Name, got.Name)
		assert.Equal(t, "the-forest-hiker", got.Slug)
		assert.Equal(t, f.ForestHiker.Guides, got.Guides)
		assert.True(t, f.ForestHiker.StartDates[0].Equal(got.StartDates[0]))

		_, err = tours.Get(ctx, f.SecretHideout.ID)
		assert.ErrorIs(t, err, store.ErrNotFound, "secret tours are not found")

		_, err = tours.Get(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("tour stats", func(t *testing.T) {
		stats, err := tours.Stats(ctx, store.StatsMinRating)
		require.NoError(t, err)
		require.Len(t, stats, 3)

		assert.Equal(t, "MEDIUM", stats[0].Difficulty)
		assert.Equal(t, "EASY", stats[1].Difficulty)
		assert.Equal(t, "DIFFICULT", stats[2].Difficulty)

		easy := stats[1]
		assert.Equal(t, 2, easy.NumTours)
		assert.Equal(t, 45, easy.NumRatings)
		assert.InDelta(t, 4.65, easy.AvgRating, 1e-9)
		assert.InDelta(t, 797.0, easy.AvgPrice, 1e-9)
		assert.InDelta(t, 397.0, easy.MinPrice, 1e-9)
		assert.InDelta(t, 1197.0, easy.MaxPrice, 1e-9)
	})

	t.Run("monthly plan", func(t *testing.T) {
		plan, err := tours.MonthlyPlan(ctx, 2021)
		require.NoError(t, err)
		require.Len(t, plan, 7)

		assert.Equal(t, 6, plan[0].Month)
		assert.Equal(t, 2, plan[0].NumTourStarts)
		assert.ElementsMatch(t, []string{f.SeaExplorer.Name, f.CityWanderer.Name}, plan[0].Tours)
		assert.Equal(t, 7, plan[1].Month)
		assert.ElementsMatch(t, []string{f.ForestHiker.Name, f.SeaExplorer.Name}, plan[1].Tours,
			"secret tours are not planned")
		assert.Equal(t, 3, plan[2].Month)
		assert.Equal(t, 1, plan[2].NumTourStarts)

		empty, err := tours.MonthlyPlan(ctx, 1999)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("tours within radius", func(t *testing.T) {
		got, err := tours.Within(ctx, Miami, domain.Miles.RadiusRadians(10))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{f.ForestHiker.Name, f.SeaExplorer.Name}, names(got))
	})

	t.Run("distances", func(t *testing.T) {
		got, err := tours.Distances(ctx, Miami, domain.Kilometers.FromMeters())
		require.NoError(t, err)
		require.Len(t, got, 4)

		assert.Equal(t, f.ForestHiker.ID, got[0].ID)
		assert.InDelta(t, 0, got[0].Distance, 0.01)
		assert.Equal(t, f.SeaExplorer.Name, got[1].Name)
		assert.InDelta(t, 5.8, got[1].Distance, 0.5)
		assert.Equal(t, f.CityWanderer.Name, got[2].Name)
		assert.Equal(t, f.SnowAdventurer.Name, got[3].Name)
	})

	t.Run("users", func(t *testing.T) {
		got, err := users.GetByEmail(ctx, "  ALICE@example.com ")
		require.NoError(t, err)
		assert.Equal(t, f.Alice.ID, got.ID)
		assert.NotEmpty(t, got.Password, "password hash is loaded for login")

		_, err = users.GetByEmail(ctx, f.Inactive.Email)
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		list, err := users.Find(ctx, query.New(domain.UserSchema))
		require.NoError(t, err)
		assert.Len(t, list, 5, "inactive users are hidden")

		many, err := users.GetMany(ctx, []primitive.ObjectID{f.Guide.ID, f.Inactive.ID, f.LeadGuide.ID})
		require.NoError(t, err)
		require.Len(t, many, 2)
		assert.Equal(t, f.Guide.ID, many[0].ID)
		assert.Equal(t, f.LeadGuide.ID, many[1].ID)
	})

	t.Run("reviews", func(t *testing.T) {
		q := query.New(domain.ReviewSchema).Where(query.Condition{
			Field: "tour", Op: query.OpEq, Value: f.ForestHiker.ID,
		})
		got, err := reviews.Find(ctx, q)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		stats, err := reviews.RatingStats(ctx, f.ForestHiker.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Quantity)
		assert.InDelta(t, 4.5, stats.Average, 1e-9)

		none, err := reviews.RatingStats(ctx, f.SnowAdventurer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RatingStats{}, none)
	})

	// Writes.

	t.Run("duplicate tour name", func(t *testing.T) {
		dup := *f.ForestHiker
		dup.ID = primitive.NilObjectID
		err := tours.Create(ctx, &dup)

		var dupErr *store.DuplicateError
		require.ErrorAs(t, err, &dupErr)
		assert.Contains(t, dupErr.Value, f.ForestHiker.Name)
	})

	t.Run("duplicate review", func(t *testing.T) {
		dup := *f.AliceOnForest
		dup.ID = primitive.NilObjectID
		err := reviews.Create(ctx, &dup)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("create assigns an id", func(t *testing.T) {
		u := &domain.User{Name: "New User", Email: "new@example.com", Password: "hash"}
		u.BeforeSave(time.Now())
		require.NoError(t, users.Create(ctx, u))
		assert.False(t, u.ID.IsZero())

		got, err := users.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)
	})

	t.Run("replace", func(t *testing.T) {
		tour, err := tours.Get(ctx, f.SeaExplorer.ID)
		require.NoError(t, err)
		tour.Price = 555
		require.NoError(t, tours.Replace(ctx, tour))

		got, err := tours.Get(ctx, f.SeaExplorer.ID)
		require.NoError(t, err)
		assert.Equal(t, 555.0, got.Price)

		missing := *tour
		missing.ID = primitive.NewObjectID()
		assert.ErrorIs(t, tours.Replace(ctx, &missing), store.ErrNotFound)
	})

	t.Run("set ratings", func(t *testing.T) {
		require.NoError(t, tours.SetRatings(ctx, f.SnowAdventurer.ID, 3, 4.3))

		got, err := tours.Get(ctx, f.SnowAdventurer.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.RatingsQuantity)
		assert.InDelta(t, 4.3, got.RatingsAverage, 1e-9)

		assert.ErrorIs(t, tours.SetRatings(ctx, primitive.NewObjectID(), 0, 4.5), store.ErrNotFound)
	})

	t.Run("reset token lookup", func(t *testing.T) {
		now := time.Now().UTC()
		u, err := users.Get(ctx, f.Bob.ID)
		require.NoError(t, err)
		token, err := u.CreatePasswordResetToken(now)
		require.NoError(t, err)
		require.NoError(t, users.Replace(ctx, u))

		got, err := users.GetByResetToken(ctx, domain.HashResetToken(token), now)
		require.NoError(t, err)
		assert.Equal(t, f.Bob.ID, got.ID)

		_, err = users.GetByResetToken(ctx, domain.HashResetToken(token), now.Add(domain.ResetTokenTTL+time.Second))
		assert.ErrorIs(t, err, store.ErrUserNotFound, "expired tokens are rejected")
	})

	t.Run("failed import names the collection", func(t *testing.T) {
		twin := func(name string) *domain.User {
			return &domain.User{ID: primitive.NewObjectID(), Name: name, Email: "twin@example.com", Role: domain.RoleUser}
		}
		err := backend.Import(ctx, store.Dataset{Users: []*domain.User{twin("Ann"), twin("Nan")}})
		require.Error(t, err)

		var storeErr *store.StoreError
		require.True(t, errors.As(err, &storeErr), "got %v", err)
		assert.Equal(t, store.OpImport, storeErr.Operation)
		assert.Equal(t, "users", storeErr.Collection)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := reviews.Delete(ctx, f.BobOnForest.ID)
		require.NoError(t, err)
		assert.Equal(t, f.ForestHiker.ID, deleted.Tour)

		_, err = reviews.Get(ctx, f.BobOnForest.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = reviews.Delete(ctx, f.BobOnForest.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = tours.Delete(ctx, f.SecretHideout.ID)
		assert.ErrorIs(t, err, store.ErrNotFound, "secret tours cannot be deleted through the API")
	})
}
