package mongodb

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// E11000 duplicate key error collection: natours.tours index: name_1 dup key: { name: "The Forest Hiker" }
	quotedValuePattern = regexp.MustCompile(`dup key: \{[^"}]*("(?:\\.|[^"\\])*")`)
	keyDocPattern      = regexp.MustCompile(`dup key: \{ ?(.*?) ?\}`)
)

// MapError maps a driver error to the store error taxonomy.
// Errors without a mapping are returned unchanged.
func MapError(collection string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	if mongo.IsDuplicateKeyError(err) {
		return &store.DuplicateError{
			Collection: collection,
			Value:      duplicateValue(err.Error()),
		}
	}

	return err
}

// duplicateValue extracts the colliding value from a duplicate key message.
// A quoted string value is returned unquoted; any other key document is
// returned as printed by the server.
func duplicateValue(msg string) string {
	if m := quotedValuePattern.FindStringSubmatch(msg); m != nil {
		if v, err := strconv.Unquote(m[1]); err == nil {
			return v
		}
		return m[1]
	}
	if m := keyDocPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}
