package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection implements store.Repository on a MongoDB collection.
// Reads apply the schema's hidden conditions.
type Collection[T any, PT store.DocumentPtr[T]] struct {
	coll   *mongo.Collection
	schema query.Schema
	logger *slog.Logger
}

// NewCollection creates a repository over coll.
// If logger is nil, a default logger will be used.
func NewCollection[T any, PT store.DocumentPtr[T]](
	coll *mongo.Collection,
	schema query.Schema,
	logger *slog.Logger,
) *Collection[T, PT] {
	if coll == nil {
		panic("collection cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T, PT]{
		coll:   coll,
		schema: schema,
		logger: logger.With(slog.String("collection", coll.Name())),
	}
}

// Name returns the collection name.
func (c *Collection[T, PT]) Name() string {
	return c.coll.Name()
}

// filter renders conds after the schema's hidden conditions.
func (c *Collection[T, PT]) filter(conds []query.Condition) bson.M {
	all := make([]query.Condition, 0, len(c.schema.Hidden)+len(conds))
	all = append(append(all, c.schema.Hidden...), conds...)
	return Filter(all)
}

// Find implements store.Repository.Find.
func (c *Collection[T, PT]) Find(ctx context.Context, q *query.Query) ([]*T, error) {
	if q == nil {
		q = query.New(c.schema)
	}

	opts := options.Find().
		SetSort(Sort(q.Sort)).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit))
	if proj := Projection(q.Projection()); proj != nil {
		opts.SetProjection(proj)
	}

	return c.find(ctx, c.filter(q.Conditions), opts)
}

func (c *Collection[T, PT]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		c.logger.Error("find failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to find in %s: %w", c.Name(), MapError(c.Name(), err))
	}

	docs := []*T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.Name(), err)
	}
	return docs, nil
}

// Count implements store.Repository.Count.
func (c *Collection[T, PT]) Count(ctx context.Context, conds []query.Condition) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, c.filter(conds))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.Name(), MapError(c.Name(), err))
	}
	return n, nil
}

// Get implements store.Repository.Get.
func (c *Collection[T, PT]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, []query.Condition{{Field: query.IDField, Op: query.OpEq, Value: id}})
}

// FindOne implements store.Repository.FindOne.
func (c *Collection[T, PT]) FindOne(ctx context.Context, conds []query.Condition) (*T, error) {
	return c.findOne(ctx, c.filter(conds))
}

func (c *Collection[T, PT]) findOne(ctx context.Context, filter any) (*T, error) {
	doc := new(T)
	if err := c.coll.FindOne(ctx, filter).Decode(doc); err != nil {
		return nil, MapError(c.Name(), err)
	}
	return doc, nil
}

// Create implements store.Repository.Create.
func (c *Collection[T, PT]) Create(ctx context.Context, doc *T) error {
	p := PT(doc)
	if p.GetID().IsZero() {
		p.SetID(primitive.NewObjectID())
	}

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		c.logger.Debug("insert failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert into %s: %w", c.Name(), MapError(c.Name(), err))
	}
	return nil
}

// Replace implements store.Repository.Replace.
func (c *Collection[T, PT]) Replace(ctx context.Context, doc *T) error {
	id := PT(doc).GetID()
	if id.IsZero() {
		return fmt.Errorf("%w: missing id", store.ErrInvalidEntity)
	}

	res, err := c.coll.ReplaceOne(ctx, bson.M{query.IDField: id}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace in %s: %w", c.Name(), MapError(c.Name(), err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, c.Name(), id.Hex())
	}
	return nil
}

// Delete implements store.Repository.Delete.
func (c *Collection[T, PT]) Delete(ctx context.Context, id primitive.ObjectID) (*T, error) {
	filter := c.filter([]query.Condition{{Field: query.IDField, Op: query.OpEq, Value: id}})

	doc := new(T)
	if err := c.coll.FindOneAndDelete(ctx, filter).Decode(doc); err != nil {
		return nil, MapError(c.Name(), err)
	}
	return doc, nil
}

// insertMany inserts docs keeping their ids.
func (c *Collection[T, PT]) insertMany(ctx context.Context, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]any, len(docs))
	for i, doc := range docs {
		if PT(doc).GetID().IsZero() {
			PT(doc).SetID(primitive.NewObjectID())
		}
		items[i] = doc
	}
	if _, err := c.coll.InsertMany(ctx, items); err != nil {
		return fmt.Errorf("failed to import %s: %w", c.Name(), MapError(c.Name(), err))
	}
	return nil
}

// clear deletes every document of the collection.
func (c *Collection[T, PT]) clear(ctx context.Context) error {
	if _, err := c.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c.Name(), err)
	}
	return nil
}
