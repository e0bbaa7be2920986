//go:build integration

package testdb

import (
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fixtures is the dataset loaded before the backend suite, with handles on
// the documents the assertions refer to.
type Fixtures struct {
	store.Dataset

	Admin, LeadGuide, Guide, Alice, Bob, Inactive *domain.User

	ForestHiker, SeaExplorer, SnowAdventurer, CityWanderer, SecretHideout *domain.Tour

	AliceOnForest, BobOnForest, AliceOnSea *domain.Review
}

// Miami is the start location of The Forest Hiker.
var Miami = domain.LatLng{Lat: 25.774772, Lng: -80.185942}

// NewFixtures builds a fresh fixture dataset with new ids.
func NewFixtures() *Fixtures {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	f := &Fixtures{}

	user := func(name, email string, role domain.Role) *domain.User {
		u := &domain.User{
			ID:       primitive.NewObjectID(),
			Name:     name,
			Email:    email,
			Role:     role,
			Password: "$2a$04$TwyQzW8yyHs3M9b4n1mH6eK7CXq2/FB2sA8sTz1QW5bdm5VFrQ7xq",
		}
		u.BeforeSave(now)
		f.Users = append(f.Users, u)
		return u
	}
	f.Admin = user("Jonas Schmedtmann", "admin@natours.io", domain.RoleAdmin)
	f.LeadGuide = user("Steve T. Williams", "steve@natours.io", domain.RoleLeadGuide)
	f.Guide = user("Lourdes Browning", "lourdes@natours.io", domain.RoleGuide)
	f.Alice = user("Alice Nguyen", "alice@example.com", domain.RoleUser)
	f.Bob = user("Bob Herrera", "bob@example.com", domain.RoleUser)
	f.Inactive = user("Ina Active", "ina@example.com", domain.RoleUser)
	f.Inactive.Deactivate()

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
	}
	point := func(lng, lat float64, address string) *domain.Location {
		return &domain.Location{Type: "Point", Coordinates: []float64{lng, lat}, Address: address}
	}
	tour := func(t *domain.Tour, age int) *domain.Tour {
		t.ID = primitive.NewObjectID()
		t.MaxGroupSize = 10
		t.Summary = "Exploring " + t.Name
		t.ImageCover = "tour-cover.jpg"
		t.CreatedAt = now.Add(-time.Duration(age) * time.Hour)
		t.BeforeSave(now)
		f.Tours = append(f.Tours, t)
		return t
	}
	f.ForestHiker = tour(&domain.Tour{
		Name:            "The Forest Hiker",
		Duration:        5,
		Difficulty:      domain.DifficultyEasy,
		RatingsAverage:  4.7,
		RatingsQuantity: 37,
		Price:           397,
		StartDates:      []time.Time{day(2021, time.April, 25), day(2021, time.July, 20), day(2021, time.October, 5)},
		StartLocation:   point(Miami.Lng, Miami.Lat, "Miami, USA"),
		Guides:          []primitive.ObjectID{f.LeadGuide.ID, f.Guide.ID},
	}, 5)
	f.SeaExplorer = tour(&domain.Tour{
		Name:            "The Sea Explorer",
		Duration:        7,
		Difficulty:      domain.DifficultyMedium,
		RatingsAverage:  4.8,
		RatingsQuantity: 23,
		Price:           497,
		StartDates:      []time.Time{day(2021, time.June, 19), day(2021, time.July, 20), day(2021, time.August, 18)},
		StartLocation:   point(-80.128473, 25.781842, "Miami Beach, USA"),
		Guides:          []primitive.ObjectID{f.LeadGuide.ID},
	}, 4)
	f.SnowAdventurer = tour(&domain.Tour{
		Name:            "The Snow Adventurer",
		Duration:        4,
		Difficulty:      domain.DifficultyDifficult,
		RatingsAverage:  4.5,
		RatingsQuantity: 13,
		Price:           997,
		StartDates:      []time.Time{day(2022, time.January, 5), day(2022, time.February, 12), day(2023, time.January, 6)},
		StartLocation:   point(-106.822318, 39.190872, "Aspen, USA"),
	}, 3)
	f.CityWanderer = tour(&domain.Tour{
		Name:            "The City Wanderer",
		Duration:        9,
		Difficulty:      domain.DifficultyEasy,
		RatingsAverage:  4.6,
		RatingsQuantity: 8,
		Price:           1197,
		StartDates:      []time.Time{day(2021, time.March, 11), day(2021, time.May, 2), day(2021, time.June, 9)},
		StartLocation:   point(-73.985141, 40.75894, "NYC, USA"),
	}, 2)
	f.SecretHideout = tour(&domain.Tour{
		Name:           "The Secret Hideout",
		Duration:       2,
		Difficulty:     domain.DifficultyEasy,
		RatingsAverage: 4.9,
		Price:          50,
		SecretTour:     true,
		StartDates:     []time.Time{day(2021, time.July, 1)},
		StartLocation:  point(-80.19, 25.77, "Miami, USA"),
	}, 1)

	review := func(u *domain.User, t *domain.Tour, rating float64) *domain.Review {
		r := &domain.Review{
			ID:     primitive.NewObjectID(),
			Review: "Tour review by " + u.Name,
			Rating: rating,
			Tour:   t.ID,
			User:   u.ID,
		}
		r.BeforeSave(now)
		f.Reviews = append(f.Reviews, r)
		return r
	}
	f.AliceOnForest = review(f.Alice, f.ForestHiker, 5)
	f.BobOnForest = review(f.Bob, f.ForestHiker, 4)
	f.AliceOnSea = review(f.Alice, f.SeaExplorer, 3)

	return f
}
