package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a hex object id taken from a request path.
func ParseID(raw string) (primitive.ObjectID, error) {
	return ParseFieldID("_id", raw)
}

// ParseFieldID parses a hex object id and names field in the error.
func ParseFieldID(field, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &InvalidIDError{Field: field, Value: raw}
	}
	return id, nil
}
