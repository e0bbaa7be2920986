package postgres

import (
	"fmt"

	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
)

// encode renders a document as relaxed Extended JSON.
func encode(doc any) (string, error) {
	raw, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return string(raw), nil
}

// decode reads a document stored by encode.
func decode(raw []byte, doc any) error {
	if err := bson.UnmarshalExtJSON(raw, false, doc); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
