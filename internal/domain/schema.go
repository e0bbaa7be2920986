package domain

import (
	"github.com/phrazzld/natours-api/internal/query"
)

// TourSchema is the queryable surface of the tours collection.
var TourSchema = query.Schema{
	Fields: map[string]query.Kind{
		"name":                      query.String,
		"slug":                      query.String,
		"duration":                  query.Number,
		"maxGroupSize":              query.Number,
		"difficulty":                query.String,
		"ratingsAverage":            query.Number,
		"ratingsQuantity":           query.Number,
		"price":                     query.Number,
		"priceDiscount":             query.Number,
		"summary":                   query.String,
		"description":               query.String,
		"imageCover":                query.String,
		"images":                    query.String,
		"createdAt":                 query.Date,
		"startDates":                query.Date,
		"secretTour":                query.Bool,
		"startLocation":             query.String,
		"startLocation.address":     query.String,
		"startLocation.description": query.String,
		"locations":                 query.String,
		"guides":                    query.ObjectID,
		"__v":                       query.Number,
	},
	Internal: []string{"__v", "createdAt"},
	MultiValue: []string{
		"duration", "ratingsQuantity", "ratingsAverage",
		"maxGroupSize", "difficulty", "price",
	},
	Hidden: []query.Condition{
		{Field: "secretTour", Op: query.OpNe, Value: true},
	},
	DefaultSort: []query.SortField{{Field: "createdAt", Desc: true}},
}

// UserSchema is the queryable surface of the users collection. Password and
// reset token fields are not part of it.
var UserSchema = query.Schema{
	Fields: map[string]query.Kind{
		"name":              query.String,
		"email":             query.String,
		"photo":             query.String,
		"role":              query.String,
		"active":            query.Bool,
		"passwordChangedAt": query.Date,
		"__v":               query.Number,
	},
	Internal:   []string{"__v", "active", "passwordChangedAt"},
	MultiValue: []string{"role"},
	Hidden: []query.Condition{
		{Field: "active", Op: query.OpNe, Value: false},
	},
}

// ReviewSchema is the queryable surface of the reviews collection.
var ReviewSchema = query.Schema{
	Fields: map[string]query.Kind{
		"review":    query.String,
		"rating":    query.Number,
		"createdAt": query.Date,
		"tour":      query.ObjectID,
		"user":      query.ObjectID,
		"__v":       query.Number,
	},
	Internal:    []string{"__v"},
	MultiValue:  []string{"rating"},
	DefaultSort: []query.SortField{{Field: "createdAt", Desc: true}},
}
