package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection implements store.Repository on a table of JSONB documents.
// Reads apply the schema's hidden conditions.
type Collection[T any, PT store.DocumentPtr[T]] struct {
	db     store.DBTX
	table  string
	schema query.Schema
	arrays []string
	logger *slog.Logger
}

// NewCollection creates a repository over table. arrays lists the document
// fields holding arrays, which conditions match element-wise.
// If logger is nil, a default logger will be used.
func NewCollection[T any, PT store.DocumentPtr[T]](
	db store.DBTX,
	table string,
	schema query.Schema,
	arrays []string,
	logger *slog.Logger,
) *Collection[T, PT] {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &Collection[T, PT]{
		db:     db,
		table:  table,
		schema: schema,
		arrays: arrays,
		logger: logger.With(slog.String("collection", table)),
	}
}

// Name returns the table name.
func (c *Collection[T, PT]) Name() string {
	return c.table
}

// WithTx returns a copy of the collection that runs its statements on tx.
func (c *Collection[T, PT]) WithTx(tx *sql.Tx) *Collection[T, PT] {
	clone := *c
	clone.db = tx
	return &clone
}

func (c *Collection[T, PT]) visible(conds []query.Condition) []query.Condition {
	all := make([]query.Condition, 0, len(c.schema.Hidden)+len(conds))
	return append(append(all, c.schema.Hidden...), conds...)
}

// Find implements store.Repository.Find. Projection is applied when the
// documents are shaped for the response.
func (c *Collection[T, PT]) Find(ctx context.Context, q *query.Query) ([]*T, error) {
	if q == nil {
		q = query.New(c.schema)
	}

	b := newBuilder(c.arrays)
	where := b.Where(c.visible(q.Conditions))
	order := b.OrderBy(q.Sort, c.schema)
	stmt := fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
		c.table, where, order, b.arg(q.Limit), b.arg(q.Skip()))

	return c.query(ctx, stmt, b.args...)
}

// query runs a statement selecting a single doc column.
func (c *Collection[T, PT]) query(ctx context.Context, stmt string, args ...any) ([]*T, error) {
	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		c.logger.Error("query failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query %s: %w", c.table, MapError(c.table, err))
	}
	defer func() { _ = rows.Close() }()

	docs := []*T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.table, err)
		}
		doc := new(T)
		if err := decode(raw, doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.table, MapError(c.table, err))
	}
	return docs, nil
}

// queryOne runs a statement returning at most one doc column.
func (c *Collection[T, PT]) queryOne(ctx context.Context, stmt string, args ...any) (*T, error) {
	var raw []byte
	if err := c.db.QueryRowContext(ctx, stmt, args...).Scan(&raw); err != nil {
		return nil, MapError(c.table, err)
	}
	doc := new(T)
	if err := decode(raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Count implements store.Repository.Count.
func (c *Collection[T, PT]) Count(ctx context.Context, conds []query.Condition) (int64, error) {
	b := newBuilder(c.arrays)
	stmt := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", c.table, b.Where(c.visible(conds)))

	var n int64
	if err := c.db.QueryRowContext(ctx, stmt, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.table, MapError(c.table, err))
	}
	return n, nil
}

// Get implements store.Repository.Get.
func (c *Collection[T, PT]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, []query.Condition{{Field: query.IDField, Op: query.OpEq, Value: id}})
}

// FindOne implements store.Repository.FindOne.
func (c *Collection[T, PT]) FindOne(ctx context.Context, conds []query.Condition) (*T, error) {
	b := newBuilder(c.arrays)
	stmt := fmt.Sprintf("SELECT doc FROM %s WHERE %s ORDER BY %s LIMIT 1",
		c.table, b.Where(c.visible(conds)), idColumn)
	return c.queryOne(ctx, stmt, b.args...)
}

// Create implements store.Repository.Create.
func (c *Collection[T, PT]) Create(ctx context.Context, doc *T) error {
	p := PT(doc)
	if p.GetID().IsZero() {
		p.SetID(primitive.NewObjectID())
	}

	raw, err := encode(doc)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s, doc) VALUES ($1, $2::jsonb)", c.table, idColumn)
	if _, err := c.db.ExecContext(ctx, stmt, p.GetID().Hex(), raw); err != nil {
		c.logger.Debug("insert failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to insert into %s: %w", c.table, MapError(c.table, err))
	}
	return nil
}

// Replace implements store.Repository.Replace.
func (c *Collection[T, PT]) Replace(ctx context.Context, doc *T) error {
	id := PT(doc).GetID()
	if id.IsZero() {
		return fmt.Errorf("%w: missing id", store.ErrInvalidEntity)
	}

	raw, err := encode(doc)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("UPDATE %s SET doc = $2::jsonb WHERE %s = $1", c.table, idColumn)
	result, err := c.db.ExecContext(ctx, stmt, id.Hex(), raw)
	if err != nil {
		return fmt.Errorf("failed to replace in %s: %w", c.table, MapError(c.table, err))
	}
	return CheckRowsAffected(result, c.table)
}

// Delete implements store.Repository.Delete.
func (c *Collection[T, PT]) Delete(ctx context.Context, id primitive.ObjectID) (*T, error) {
	b := newBuilder(c.arrays)
	where := b.Where(c.visible([]query.Condition{{Field: query.IDField, Op: query.OpEq, Value: id}}))
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s RETURNING doc", c.table, where)
	return c.queryOne(ctx, stmt, b.args...)
}

// insertMany inserts docs keeping their ids.
func (c *Collection[T, PT]) insertMany(ctx context.Context, docs []*T) error {
	for _, doc := range docs {
		if err := c.Create(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
