package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository is an in-memory store.Repository. It evaluates conditions,
// sorting and pagination the way the database backends do, applies the
// schema's hidden conditions to reads, and enforces unique fields.
// Documents are stored as BSON, so callers never share memory with it.
//
// Errors set in Errs are returned by the method of the same name, which
// lets tests exercise failure paths:
//
//	repo.Errs["Find"] = errors.New("connection reset")
type Repository[T any, PT store.DocumentPtr[T]] struct {
	mu     sync.RWMutex
	name   string
	schema query.Schema
	unique [][]string
	docs   map[primitive.ObjectID][]byte

	Errs map[string]error
}

// NewRepository creates an empty repository. Each entry of unique is a set
// of fields whose combined value must be unique, like a compound index.
func NewRepository[T any, PT store.DocumentPtr[T]](
	name string,
	schema query.Schema,
	unique ...[]string,
) *Repository[T, PT] {
	return &Repository[T, PT]{
		name:   name,
		schema: schema,
		unique: unique,
		docs:   make(map[primitive.ObjectID][]byte),
		Errs:   make(map[string]error),
	}
}

// Name returns the collection name.
func (r *Repository[T, PT]) Name() string { return r.name }

// Len returns the number of stored documents, hidden ones included.
func (r *Repository[T, PT]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

type entry struct {
	raw []byte
	doc bson.M
}

// scan returns the stored documents matching conds and the hidden
// conditions when visibleOnly is set.
func (r *Repository[T, PT]) scan(conds []query.Condition, visibleOnly bool) ([]entry, error) {
	if visibleOnly {
		conds = append(append([]query.Condition{}, r.schema.Hidden...), conds...)
	}

	out := make([]entry, 0, len(r.docs))
	for _, raw := range r.docs {
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", r.name, err)
		}
		if matches(doc, conds) {
			out = append(out, entry{raw: raw, doc: doc})
		}
	}
	return out, nil
}

func (r *Repository[T, PT]) decode(raw []byte) (*T, error) {
	doc := new(T)
	if err := bson.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", r.name, err)
	}
	return doc, nil
}

func (r *Repository[T, PT]) fail(method string) error {
	if err, ok := r.Errs[method]; ok && err != nil {
		return err
	}
	return nil
}

// Find implements store.Repository.
func (r *Repository[T, PT]) Find(_ context.Context, q *query.Query) ([]*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("Find"); err != nil {
		return nil, err
	}

	found, err := r.scan(q.Conditions, true)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		return less(found[i].doc, found[j].doc, q.Sort)
	})

	skip := q.Skip()
	if skip >= len(found) {
		return []*T{}, nil
	}
	found = found[skip:]
	if q.Limit > 0 && len(found) > q.Limit {
		found = found[:q.Limit]
	}

	docs := make([]*T, 0, len(found))
	for _, e := range found {
		doc, err := r.decode(e.raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count implements store.Repository.
func (r *Repository[T, PT]) Count(_ context.Context, conds []query.Condition) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("Count"); err != nil {
		return 0, err
	}

	found, err := r.scan(conds, true)
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

// Get implements store.Repository.
func (r *Repository[T, PT]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	if err := r.fail("Get"); err != nil {
		return nil, err
	}
	return r.FindOne(ctx, []query.Condition{{Field: query.IDField, Op: query.OpEq, Value: id}})
}

// FindOne implements store.Repository.
func (r *Repository[T, PT]) FindOne(_ context.Context, conds []query.Condition) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.fail("FindOne"); err != nil {
		return nil, err
	}

	found, err := r.scan(conds, true)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no %s document matches", store.ErrNotFound, r.name)
	}
	sort.Slice(found, func(i, j int) bool {
		return less(found[i].doc, found[j].doc, []query.SortField{{Field: query.IDField}})
	})
	return r.decode(found[0].raw)
}

// Create implements store.Repository.
func (r *Repository[T, PT]) Create(_ context.Context, doc *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Create"); err != nil {
		return err
	}

	p := PT(doc)
	if p.GetID().IsZero() {
		p.SetID(primitive.NewObjectID())
	}
	if _, exists := r.docs[p.GetID()]; exists {
		return &store.DuplicateError{Collection: r.name, Value: p.GetID().Hex()}
	}
	return r.put(p)
}

// Replace implements store.Repository.
func (r *Repository[T, PT]) Replace(_ context.Context, doc *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Replace"); err != nil {
		return err
	}

	p := PT(doc)
	if _, exists := r.docs[p.GetID()]; !exists {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, r.name, p.GetID().Hex())
	}
	return r.put(p)
}

// Delete implements store.Repository.
func (r *Repository[T, PT]) Delete(_ context.Context, id primitive.ObjectID) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Delete"); err != nil {
		return nil, err
	}

	found, err := r.scan([]query.Condition{{Field: query.IDField, Op: query.OpEq, Value: id}}, true)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s %s", store.ErrNotFound, r.name, id.Hex())
	}
	delete(r.docs, id)
	return r.decode(found[0].raw)
}

// Insert stores docs without running the unique checks, like a bulk import.
func (r *Repository[T, PT]) Insert(docs ...*T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range docs {
		p := PT(doc)
		if p.GetID().IsZero() {
			p.SetID(primitive.NewObjectID())
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		r.docs[p.GetID()] = raw
	}
	return nil
}

// Clear removes every document.
func (r *Repository[T, PT]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[primitive.ObjectID][]byte)
}

// raw returns a stored document regardless of the hidden conditions.
func (r *Repository[T, PT]) raw(id primitive.ObjectID) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raw, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", store.ErrNotFound, r.name, id.Hex())
	}
	return r.decode(raw)
}

// put writes doc after checking the unique fields. The caller holds mu.
func (r *Repository[T, PT]) put(doc PT) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	for _, keys := range r.unique {
		if value, dup := r.collides(doc.GetID(), fields, keys); dup {
			return &store.DuplicateError{Collection: r.name, Value: value}
		}
	}

	r.docs[doc.GetID()] = raw
	return nil
}

func (r *Repository[T, PT]) collides(id primitive.ObjectID, fields bson.M, keys []string) (string, bool) {
	conds := make([]query.Condition, 0, len(keys))
	for _, k := range keys {
		v, ok := lookup(fields, k)
		if !ok {
			return "", false
		}
		conds = append(conds, query.Condition{Field: k, Op: query.OpEq, Value: v})
	}

	for otherID, raw := range r.docs {
		if otherID == id {
			continue
		}
		var other bson.M
		if err := bson.Unmarshal(raw, &other); err != nil {
			continue
		}
		if matches(other, conds) {
			return fmt.Sprint(conds[0].Value), true
		}
	}
	return "", false
}
