package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty levels of a tour.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// DefaultRatingsAverage is the rating of a tour without reviews.
const DefaultRatingsAverage = 4.5

// Tour is a bookable tour.
type Tour struct {
	ID              primitive.ObjectID   `json:"_id" bson:"_id"`
	Name            string               `json:"name" bson:"name" validate:"required,min=10,max=40"`
	Slug            string               `json:"slug" bson:"slug"`
	Duration        float64              `json:"duration" bson:"duration" validate:"required,gt=0"`
	MaxGroupSize    int                  `json:"maxGroupSize" bson:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string               `json:"difficulty" bson:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64              `json:"ratingsAverage" bson:"ratingsAverage" validate:"min=1,max=5"`
	RatingsQuantity int                  `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Price           float64              `json:"price" bson:"price" validate:"required,gt=0"`
	PriceDiscount   float64              `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty" validate:"omitempty,ltfield=Price"`
	Summary         string               `json:"summary" bson:"summary" validate:"required"`
	Description     string               `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string               `json:"imageCover" bson:"imageCover" validate:"required"`
	Images          []string             `json:"images" bson:"images"`
	CreatedAt       time.Time            `json:"createdAt" bson:"createdAt"`
	StartDates      []time.Time          `json:"startDates" bson:"startDates"`
	SecretTour      bool                 `json:"secretTour" bson:"secretTour"`
	StartLocation   *Location            `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations       []Location           `json:"locations" bson:"locations" validate:"dive"`
	Guides          []primitive.ObjectID `json:"guides" bson:"guides"`
	Version         int                  `json:"__v" bson:"__v"`

	// Populated relations, never stored.
	GuideDocs []*Guide  `json:"-" bson:"-"`
	Reviews   []*Review `json:"-" bson:"-"`
}

// Guide is the public part of a user guiding a tour.
type Guide struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Photo string             `json:"photo"`
	Role  Role               `json:"role"`
}

// GuideOf returns the public fields of u.
func GuideOf(u *User) *Guide {
	return &Guide{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role}
}

// GetID returns the tour's id.
func (t *Tour) GetID() primitive.ObjectID { return t.ID }

// SetID sets the tour's id.
func (t *Tour) SetID(id primitive.ObjectID) { t.ID = id }

// DurationWeeks is the tour's duration expressed in weeks.
func (t *Tour) DurationWeeks() float64 {
	return t.Duration / 7
}

// BeforeSave fills defaults and derived fields. It runs before every
// validation and write.
func (t *Tour) BeforeSave(now time.Time) {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.Slug = Slugify(t.Name)

	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	t.RatingsAverage = RoundRating(t.RatingsAverage)

	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC().Truncate(time.Millisecond)
	}
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []Location{}
	}
	if t.Guides == nil {
		t.Guides = []primitive.ObjectID{}
	}

	t.StartLocation.normalize()
	for i := range t.Locations {
		t.Locations[i].normalize()
	}
}

// RoundRating rounds a rating to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// MarshalJSON adds the id and durationWeeks virtuals and replaces guide ids
// with the guide documents when they have been populated. Populated reviews
// are rendered without their version key.
func (t Tour) MarshalJSON() ([]byte, error) {
	type tourFields Tour

	var guides any = t.Guides
	if t.GuideDocs != nil {
		guides = t.GuideDocs
	}

	var reviews []embeddedReview
	for _, r := range t.Reviews {
		reviews = append(reviews, embeddedReview(*r))
	}

	return json.Marshal(struct {
		tourFields
		ID            string           `json:"id"`
		DurationWeeks float64          `json:"durationWeeks"`
		Guides        any              `json:"guides"`
		Reviews       []embeddedReview `json:"reviews,omitempty"`
	}{
		tourFields:    tourFields(t),
		ID:            t.ID.Hex(),
		DurationWeeks: t.DurationWeeks(),
		Guides:        guides,
		Reviews:       reviews,
	})
}
