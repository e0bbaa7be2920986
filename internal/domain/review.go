package domain

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Review    string             `json:"review" bson:"review" validate:"required"`
	Rating    float64            `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	Tour      primitive.ObjectID `json:"tour" bson:"tour" validate:"required"`
	User      primitive.ObjectID `json:"user" bson:"user" validate:"required"`
	Version   int                `json:"__v" bson:"__v"`

	// Populated author, never stored.
	Author *Author `json:"-" bson:"-"`
}

// Author is the public part of a reviewing user.
type Author struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Photo string             `json:"photo"`
}

// AuthorOf returns the public fields of u.
func AuthorOf(u *User) *Author {
	return &Author{ID: u.ID, Name: u.Name, Photo: u.Photo}
}

// GetID returns the review's id.
func (r *Review) GetID() primitive.ObjectID { return r.ID }

// SetID sets the review's id.
func (r *Review) SetID(id primitive.ObjectID) { r.ID = id }

// BeforeSave normalizes the review before validation and writes.
func (r *Review) BeforeSave(now time.Time) {
	r.Review = strings.TrimSpace(r.Review)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC().Truncate(time.Millisecond)
	}
}

// MarshalJSON adds the id virtual and replaces the user id with the author
// when it has been populated.
func (r Review) MarshalJSON() ([]byte, error) {
	return r.marshal(&r.Version)
}

// embeddedReview is a review rendered inside its tour.
type embeddedReview Review

// MarshalJSON leaves the version key out.
func (r embeddedReview) MarshalJSON() ([]byte, error) {
	return Review(r).marshal(nil)
}

// marshal renders the review. The version key is omitted when version is
// nil.
func (r Review) marshal(version *int) ([]byte, error) {
	type reviewFields Review

	var user any = r.User
	if r.Author != nil {
		user = r.Author
	}

	return json.Marshal(struct {
		reviewFields
		ID      string `json:"id"`
		User    any    `json:"user"`
		Version *int   `json:"__v,omitempty"`
	}{
		reviewFields: reviewFields(r),
		ID:           r.ID.Hex(),
		User:         user,
		Version:      version,
	})
}

// RatingStats summarizes the reviews of one tour.
type RatingStats struct {
	Quantity int
	Average  float64
}

// TourRatings returns the values stored on a tour for the given stats. A
// tour without reviews falls back to the defaults.
func TourRatings(stats RatingStats) (int, float64) {
	if stats.Quantity == 0 {
		return 0, DefaultRatingsAverage
	}
	return stats.Quantity, RoundRating(stats.Average)
}
