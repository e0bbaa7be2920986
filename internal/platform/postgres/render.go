package postgres

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/natours-api/internal/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// idColumn holds the hex object id of each document.
const idColumn = "id"

// builder renders query conditions into SQL over a jsonb "doc" column and
// collects the positional arguments they reference.
type builder struct {
	arrays []string
	args   []any
}

func newBuilder(arrays []string) *builder {
	return &builder{arrays: arrays}
}

// arg records v and returns its placeholder.
func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// value records a condition value converted for the driver.
func (b *builder) value(v any) string {
	return b.arg(sqlValue(v))
}

// Where renders conds joined with AND. No conditions render as TRUE.
func (b *builder) Where(conds []query.Condition) string {
	if len(conds) == 0 {
		return "TRUE"
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		parts = append(parts, b.condition(c))
	}
	return strings.Join(parts, " AND ")
}

func (b *builder) condition(c query.Condition) string {
	if c.Field == query.IDField {
		return b.compare(idColumn, c.Op, c.Value)
	}

	kind := kindOf(c.Value)
	doc := jsonPath(c.Field)
	if !slices.Contains(b.arrays, c.Field) {
		return b.compare(scalar(doc, kind), c.Op, c.Value)
	}

	// An array field matches when any element does, and "not equal" when
	// no element is equal.
	elems := fmt.Sprintf(
		"jsonb_array_elements(CASE WHEN jsonb_typeof(%s) = 'array' THEN %s ELSE '[]'::jsonb END) AS e(v)",
		doc, doc,
	)
	if c.Op == query.OpNe {
		return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
			elems, b.compare(scalar("e.v", kind), query.OpEq, c.Value))
	}
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)",
		elems, b.compare(scalar("e.v", kind), c.Op, c.Value))
}

func (b *builder) compare(expr string, op query.Operator, v any) string {
	switch op {
	case query.OpNe:
		return expr + " IS DISTINCT FROM " + b.value(v)
	case query.OpGt:
		return expr + " > " + b.value(v)
	case query.OpGte:
		return expr + " >= " + b.value(v)
	case query.OpLt:
		return expr + " < " + b.value(v)
	case query.OpLte:
		return expr + " <= " + b.value(v)
	case query.OpIn:
		values, _ := v.([]any)
		if len(values) == 0 {
			return "FALSE"
		}
		placeholders := make([]string, len(values))
		for i, item := range values {
			placeholders[i] = b.value(item)
		}
		return expr + " IN (" + strings.Join(placeholders, ", ") + ")"
	default:
		return expr + " = " + b.value(v)
	}
}

// OrderBy renders sort fields. Missing values sort first ascending and last
// descending. Array fields sort by their first element.
func (b *builder) OrderBy(sort []query.SortField, schema query.Schema) string {
	if len(sort) == 0 {
		return idColumn
	}
	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		expr := idColumn
		if s.Field != query.IDField {
			kind, _ := schema.KindOf(s.Field)
			path := s.Field
			if slices.Contains(b.arrays, s.Field) {
				path += ".0"
			}
			expr = scalar(jsonPath(path), kind)
		}
		if s.Desc {
			parts = append(parts, expr+" DESC NULLS LAST")
		} else {
			parts = append(parts, expr+" ASC NULLS FIRST")
		}
	}
	return strings.Join(parts, ", ")
}

// jsonPath addresses a dotted field of the document column.
func jsonPath(field string) string {
	path := strings.ReplaceAll(strings.ReplaceAll(field, "'", "''"), ".", ",")
	return "(doc #> '{" + path + "}')"
}

// scalar converts a jsonb value expression to a comparable SQL value.
// Object ids and dates are stored in their Extended JSON wrappers.
func scalar(expr string, kind query.Kind) string {
	switch kind {
	case query.Number:
		return "(" + expr + " #>> '{}')::double precision"
	case query.Bool:
		return "(" + expr + " #>> '{}')::boolean"
	case query.Date:
		return "(" + expr + " ->> '$date')::timestamptz"
	case query.ObjectID:
		return "(" + expr + " ->> '$oid')"
	default:
		return "(" + expr + " #>> '{}')"
	}
}

// kindOf infers the kind of a condition value. Values reach the store
// already coerced by the query parser.
func kindOf(v any) query.Kind {
	switch v := v.(type) {
	case []any:
		if len(v) > 0 {
			return kindOf(v[0])
		}
		return query.String
	case float64, float32, int, int32, int64:
		return query.Number
	case bool:
		return query.Bool
	case time.Time:
		return query.Date
	case primitive.ObjectID:
		return query.ObjectID
	default:
		return query.String
	}
}

// sqlValue converts a condition value to a driver argument.
func sqlValue(v any) any {
	switch v := v.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case time.Time:
		return v.UTC()
	default:
		return v
	}
}
