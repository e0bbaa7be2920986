package query

import (
	"math"
	"slices"
)

// IDField is the primary key of every document collection.
const IDField = "_id"

// Reserved query string keys that never become filter conditions.
const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

// Default pagination values used when a schema does not set its own.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Operator is a comparison applied by a Condition.
type Operator string

// Supported operators.
const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// Kind is the storage type of a schema field. Filter values are coerced to
// the field's kind before they reach a backend.
type Kind int

// Field kinds.
const (
	String Kind = iota
	Number
	Bool
	Date
	ObjectID
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case Date:
		return "date"
	case ObjectID:
		return "object id"
	default:
		return "string"
	}
}

// Condition is a single predicate on a document field.
// For OpIn, Value is a []any.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// SortField orders results by a field.
type SortField struct {
	Field string
	Desc  bool
}

// Schema describes the queryable surface of a collection.
type Schema struct {
	// Fields lists every field that may be filtered, sorted or projected.
	// IDField is always implied.
	Fields map[string]Kind

	// Internal fields are bookkeeping data left out of every projection
	// unless a request names them explicitly.
	Internal []string

	// MultiValue fields accept repeated query parameters, which become an
	// OpIn condition. For every other field the last value wins.
	MultiValue []string

	// Hidden conditions are applied by storage backends to every read.
	Hidden []Condition

	DefaultSort  []SortField
	DefaultLimit int
	MaxLimit     int
}

// KindOf reports the kind of a field and whether the schema declares it.
func (s Schema) KindOf(field string) (Kind, bool) {
	if field == IDField {
		return ObjectID, true
	}
	k, ok := s.Fields[field]
	return k, ok
}

func (s Schema) isMultiValue(field string) bool {
	return slices.Contains(s.MultiValue, field)
}

func (s Schema) limits() (int, int) {
	def, maxLimit := s.DefaultLimit, s.MaxLimit
	if def <= 0 {
		def = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if def > maxLimit {
		def = maxLimit
	}
	return def, maxLimit
}

// Query is a parsed, schema-checked document query.
type Query struct {
	Conditions []Condition
	Sort       []SortField

	// Fields is the inclusive projection requested by the client. When it is
	// empty, Exclude lists the fields to leave out.
	Fields  []string
	Exclude []string

	Page  int
	Limit int
}

// New returns a query with the schema's default sort, projection and page.
func New(schema Schema) *Query {
	limit, _ := schema.limits()
	q := &Query{
		Sort:    withTieBreaker(slices.Clone(schema.DefaultSort)),
		Exclude: slices.Clone(schema.Internal),
		Page:    1,
		Limit:   limit,
	}
	return q
}

// Skip is the number of documents preceding the current page. It saturates
// at math.MaxInt instead of overflowing.
func (q *Query) Skip() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Where adds conditions to the query. Scope conditions from nested routes
// are added this way.
func (q *Query) Where(conds ...Condition) *Query {
	q.Conditions = append(q.Conditions, conds...)
	return q
}

// Projection is the resolved set of fields returned for each document.
// Exactly one of Include and Exclude is populated, or neither when every
// field is returned.
type Projection struct {
	Include []string
	Exclude []string
}

// Projection resolves the query's field selection. IDField is always part
// of an inclusive projection.
func (q *Query) Projection() Projection {
	if len(q.Fields) > 0 {
		include := []string{IDField}
		for _, f := range q.Fields {
			if !slices.Contains(include, f) {
				include = append(include, f)
			}
		}
		return Projection{Include: include}
	}
	if len(q.Exclude) == 0 {
		return Projection{}
	}
	exclude := make([]string, 0, len(q.Exclude))
	for _, f := range q.Exclude {
		if f != IDField && !slices.Contains(exclude, f) {
			exclude = append(exclude, f)
		}
	}
	return Projection{Exclude: exclude}
}

// withTieBreaker appends an ascending IDField sort so that documents with
// equal sort keys keep a fixed order across pages.
func withTieBreaker(sort []SortField) []SortField {
	for _, s := range sort {
		if s.Field == IDField {
			return sort
		}
	}
	return append(sort, SortField{Field: IDField})
}
