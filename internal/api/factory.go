package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entity is the constraint satisfied by every document served through a
// Resource: a pointer to the document type that can be identified and
// normalized before it is written.
type Entity[T any] interface {
	store.DocumentPtr[T]
	BeforeSave(now time.Time)
}

// Resource produces the CRUD handlers of one collection. Only Repo and
// Schema are required; every hook is optional.
type Resource[T any, PT Entity[T]] struct {
	Name   string
	Repo   store.Repository[T]
	Schema query.Schema

	// ID extracts the document id from the request. Defaults to the "id"
	// path parameter.
	ID func(r *http.Request) string

	// Scope adds conditions derived from the request path to list queries,
	// such as the tour of a nested review route.
	Scope func(r *http.Request) ([]query.Condition, error)

	// Populate fills relations of listed documents; PopulateOne of a single
	// document.
	Populate    func(ctx context.Context, docs ...*T) error
	PopulateOne func(ctx context.Context, doc *T) error

	// BeforeCreate completes a decoded document before it is validated.
	BeforeCreate func(r *http.Request, doc *T) error

	// Authorize is checked against the stored document before it is
	// updated or deleted.
	Authorize func(r *http.Request, doc *T) error

	// Preserve copies server-managed fields of the stored document back
	// over the client's update.
	Preserve func(stored, updated *T)

	// AfterWrite runs after a create or update, AfterDelete after a delete.
	AfterWrite  func(ctx context.Context, doc *T) error
	AfterDelete func(ctx context.Context, doc *T) error

	// Now is the clock used for server-set timestamps.
	Now func() time.Time
}

// GetAll lists the documents matching the request's query string.
func (res Resource[T, PT]) GetAll() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()

		q, err := query.Parse(r.URL.Query(), res.Schema)
		if err != nil {
			return err
		}
		if res.Scope != nil {
			conds, err := res.Scope(r)
			if err != nil {
				return err
			}
			q.Where(conds...)
		}

		docs, err := res.Repo.Find(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", res.Name, err)
		}
		if res.Populate != nil && len(docs) > 0 {
			if err := res.Populate(ctx, docs...); err != nil {
				return err
			}
		}

		shaped, err := query.ShapeAll(docs, q)
		if err != nil {
			return err
		}
		shared.RespondWithList(w, r, shaped, len(shaped))
		return nil
	}
}

// GetOne returns a single document by id.
func (res Resource[T, PT]) GetOne() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()

		id, err := res.id(r)
		if err != nil {
			return err
		}
		doc, err := res.Repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get %s %s: %w", res.Name, id.Hex(), err)
		}
		if res.PopulateOne != nil {
			if err := res.PopulateOne(ctx, doc); err != nil {
				return err
			}
		}
		return res.respond(w, r, http.StatusOK, doc)
	}
}

// CreateOne validates and stores the document in the request body.
func (res Resource[T, PT]) CreateOne() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()

		doc := new(T)
		if err := shared.DecodeJSON(r, doc); err != nil {
			return err
		}
		PT(doc).SetID(primitive.NilObjectID)

		if res.BeforeCreate != nil {
			if err := res.BeforeCreate(r, doc); err != nil {
				return err
			}
		}
		if err := res.validate(doc); err != nil {
			return err
		}

		if err := res.Repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create %s: %w", res.Name, err)
		}
		if res.AfterWrite != nil {
			if err := res.AfterWrite(ctx, doc); err != nil {
				return err
			}
		}
		return res.respond(w, r, http.StatusCreated, doc)
	}
}

// UpdateOne merges the request body onto the stored document and replaces
// it. Fields absent from the body keep their stored values.
func (res Resource[T, PT]) UpdateOne() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()

		id, err := res.id(r)
		if err != nil {
			return err
		}
		doc, err := res.Repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get %s %s: %w", res.Name, id.Hex(), err)
		}
		if res.Authorize != nil {
			if err := res.Authorize(r, doc); err != nil {
				return err
			}
		}

		stored, err := deepCopy(doc)
		if err != nil {
			return fmt.Errorf("failed to copy %s %s: %w", res.Name, id.Hex(), err)
		}
		if err := shared.DecodeJSON(r, doc); err != nil {
			return err
		}
		PT(doc).SetID(id)
		if res.Preserve != nil {
			res.Preserve(stored, doc)
		}

		if err := res.validate(doc); err != nil {
			return err
		}
		if err := res.Repo.Replace(ctx, doc); err != nil {
			return fmt.Errorf("failed to update %s %s: %w", res.Name, id.Hex(), err)
		}
		if res.AfterWrite != nil {
			if err := res.AfterWrite(ctx, doc); err != nil {
				return err
			}
		}
		return res.respond(w, r, http.StatusOK, doc)
	}
}

// deepCopy returns a copy of doc sharing no pointers or slices with it, so
// that decoding a request body into doc leaves the copy untouched.
func deepCopy[T any](doc *T) (*T, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOne removes a document by id and answers 204.
func (res Resource[T, PT]) DeleteOne() HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()

		id, err := res.id(r)
		if err != nil {
			return err
		}
		if res.Authorize != nil {
			doc, err := res.Repo.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get %s %s: %w", res.Name, id.Hex(), err)
			}
			if err := res.Authorize(r, doc); err != nil {
				return err
			}
		}

		deleted, err := res.Repo.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete %s %s: %w", res.Name, id.Hex(), err)
		}
		if res.AfterDelete != nil {
			if err := res.AfterDelete(ctx, deleted); err != nil {
				return err
			}
		}
		shared.RespondWithNoContent(w)
		return nil
	}
}

func (res Resource[T, PT]) id(r *http.Request) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, "id")
	if res.ID != nil {
		raw = res.ID(r)
	}
	return domain.ParseID(raw)
}

func (res Resource[T, PT]) now() time.Time {
	if res.Now != nil {
		return res.Now()
	}
	return time.Now()
}

func (res Resource[T, PT]) validate(doc *T) error {
	PT(doc).BeforeSave(res.now())
	return domain.Validate(doc)
}

// respond writes a single document without its internal fields.
func (res Resource[T, PT]) respond(w http.ResponseWriter, r *http.Request, status int, doc *T) error {
	shaped, err := query.Shape(doc, query.New(res.Schema))
	if err != nil {
		return err
	}
	shared.RespondWithData(w, r, status, shaped)
	return nil
}
