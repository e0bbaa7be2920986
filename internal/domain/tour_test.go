package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validTour() *Tour {
	return &Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
	}
}

func TestTour_BeforeSave(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tour := validTour()
	tour.Name = "  The Forest Hiker  "
	tour.StartLocation = &Location{Coordinates: []float64{-115.570154, 51.178456}}

	tour.BeforeSave(now)

	assert.Equal(t, "The Forest Hiker", tour.Name)
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, DefaultRatingsAverage, tour.RatingsAverage)
	assert.Equal(t, now, tour.CreatedAt)
	assert.Equal(t, "Point", tour.StartLocation.Type)
	assert.NotNil(t, tour.Guides)
	assert.NotNil(t, tour.StartDates)
}

func TestTour_BeforeSaveKeepsCreatedAt(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tour := validTour()
	tour.CreatedAt = created
	tour.RatingsAverage = 4.6666

	tour.BeforeSave(time.Now())

	assert.Equal(t, created, tour.CreatedAt)
	assert.Equal(t, 4.7, tour.RatingsAverage)
}

func TestTour_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Tour)
		expected []string
	}{
		{
			name:   "valid",
			mutate: func(*Tour) {},
		},
		{
			name:     "missing name",
			mutate:   func(t *Tour) { t.Name = "" },
			expected: []string{"A tour must have a name"},
		},
		{
			name:     "short name",
			mutate:   func(t *Tour) { t.Name = "Short" },
			expected: []string{"A tour name must have more or equal then 10 characters"},
		},
		{
			name:     "long name",
			mutate:   func(t *Tour) { t.Name = "An Extremely Long Tour Name That Goes On And On" },
			expected: []string{"A tour name must have less or equal then 40 characters"},
		},
		{
			name:     "bad difficulty",
			mutate:   func(t *Tour) { t.Difficulty = "extreme" },
			expected: []string{"Difficulty is either: easy, medium, difficult"},
		},
		{
			name:     "discount above price",
			mutate:   func(t *Tour) { t.PriceDiscount = 500 },
			expected: []string{"Discount price (500) should be below regular price"},
		},
		{
			name:     "rating out of range",
			mutate:   func(t *Tour) { t.RatingsAverage = 6 },
			expected: []string{"Rating must be below 5.0"},
		},
		{
			name:     "bad location",
			mutate:   func(t *Tour) { t.Locations = []Location{{Type: "Polygon", Coordinates: []float64{1, 2}}} },
			expected: []string{"A location type must be Point"},
		},
		{
			name: "several failures",
			mutate: func(t *Tour) {
				t.Price = 0
				t.Summary = ""
			},
			expected: []string{"A tour must have a price", "A tour must have a summary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour := validTour()
			tt.mutate(tour)
			tour.BeforeSave(time.Now())

			err := Validate(tour)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, ValidationErrors(tt.expected), verrs)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{"A tour must have a name", "A tour must have a price"}
	assert.Equal(t, "Invalid input data. A tour must have a name. A tour must have a price", err.Error())
}

func TestTour_MarshalJSON(t *testing.T) {
	guideID := primitive.NewObjectID()
	tour := validTour()
	tour.ID = primitive.NewObjectID()
	tour.Duration = 14
	tour.Guides = []primitive.ObjectID{guideID}

	t.Run("virtuals", func(t *testing.T) {
		raw, err := json.Marshal(tour)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.Equal(t, tour.ID.Hex(), m["_id"])
		assert.Equal(t, tour.ID.Hex(), m["id"])
		assert.Equal(t, 2.0, m["durationWeeks"])
		assert.Equal(t, []any{guideID.Hex()}, m["guides"])
		assert.NotContains(t, m, "reviews")
	})

	t.Run("populated", func(t *testing.T) {
		populated := *tour
		changed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		guide := &User{
			ID: guideID, Name: "Lourdes Browning", Email: "lourdes@example.com", Role: RoleGuide,
			Password: "hash", PasswordChangedAt: &changed, Version: 3,
		}
		populated.GuideDocs = []*Guide{GuideOf(guide)}
		populated.Reviews = []*Review{{ID: primitive.NewObjectID(), Review: "Great", Rating: 5, Version: 2}}

		raw, err := json.Marshal(populated)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		guides := m["guides"].([]any)
		require.Len(t, guides, 1)
		guideMap := guides[0].(map[string]any)
		assert.Equal(t, "Lourdes Browning", guideMap["name"])
		assert.Equal(t, "lourdes@example.com", guideMap["email"])
		assert.Equal(t, "guide", guideMap["role"])
		for _, key := range []string{"password", "passwordChangedAt", "__v", "active"} {
			assert.NotContains(t, guideMap, key)
		}

		reviews := m["reviews"].([]any)
		require.Len(t, reviews, 1)
		review := reviews[0].(map[string]any)
		assert.Equal(t, "Great", review["review"])
		assert.NotContains(t, review, "__v")
	})
}

func TestReview_MarshalKeepsVersion(t *testing.T) {
	raw, err := json.Marshal(Review{ID: primitive.NewObjectID(), Review: "Great", Rating: 5, Version: 2})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 2.0, m["__v"])
}

func TestTour_UnmarshalGuideIDs(t *testing.T) {
	id := primitive.NewObjectID()
	var tour Tour
	require.NoError(t, json.Unmarshal([]byte(`{"guides":["`+id.Hex()+`"]}`), &tour))
	assert.Equal(t, []primitive.ObjectID{id}, tour.Guides)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"The Forest Hiker":      "the-forest-hiker",
		"  The  Sea--Explorer ": "the-sea-explorer",
		"Tour #1: Snow & Ice":   "tour-1-snow-ice",
		"":                      "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, Slugify(in), in)
	}
}

func TestTourRatings(t *testing.T) {
	qty, avg := TourRatings(RatingStats{})
	assert.Equal(t, 0, qty)
	assert.Equal(t, DefaultRatingsAverage, avg)

	qty, avg = TourRatings(RatingStats{Quantity: 3, Average: 4.3333})
	assert.Equal(t, 3, qty)
	assert.Equal(t, 4.3, avg)
}
