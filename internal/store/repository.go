package store

import (
	"context"

	"github.com/phrazzld/natours-api/internal/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is an entity stored in a collection under an object id.
type Document interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
}

// DocumentPtr constrains a repository's element type to a pointer that
// implements Document.
type DocumentPtr[T any] interface {
	*T
	Document
}

// Repository is the generic document collection used by the handler factory.
// Every read applies the collection schema's hidden conditions, so hidden
// documents behave as if they did not exist.
type Repository[T any] interface {
	// Find returns one page of documents matching q, ordered by q.Sort.
	// A page past the end yields an empty slice.
	Find(ctx context.Context, q *query.Query) ([]*T, error)

	// Count returns the number of documents matching conds.
	Count(ctx context.Context, conds []query.Condition) (int64, error)

	// Get returns the document with the given id.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)

	// FindOne returns the first document matching conds.
	// Returns ErrNotFound if none does.
	FindOne(ctx context.Context, conds []query.Condition) (*T, error)

	// Create inserts doc, assigning a new id when it has none.
	// Returns a *DuplicateError when a unique index is violated.
	Create(ctx context.Context, doc *T) error

	// Replace overwrites the stored document with doc.
	// Returns ErrNotFound if it does not exist.
	Replace(ctx context.Context, doc *T) error

	// Delete removes the document with the given id and returns it.
	// Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id primitive.ObjectID) (*T, error)
}

// OrderByIDs returns docs sorted in the order of ids. Documents whose id is
// not listed are dropped.
func OrderByIDs[T any, PT DocumentPtr[T]](docs []*T, ids []primitive.ObjectID) []*T {
	byID := make(map[primitive.ObjectID]*T, len(docs))
	for _, doc := range docs {
		byID[PT(doc).GetID()] = doc
	}

	ordered := make([]*T, 0, len(docs))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			ordered = append(ordered, doc)
			delete(byID, id)
		}
	}
	return ordered
}
