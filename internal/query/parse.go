package query

import (
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// filterKeyPattern matches "field" and "field[op]" keys, with dotted paths
// for embedded documents.
var filterKeyPattern = regexp.MustCompile(
	`^([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)(?:\[([A-Za-z]+)\])?$`,
)

// bracketOperators are the operators a client may name in a filter key.
var bracketOperators = map[string]Operator{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

var reservedParams = []string{ParamPage, ParamSort, ParamLimit, ParamFields}

// Parse builds a Query from a request's query string. Steps run in a fixed
// order: filter, sort, project, paginate.
func Parse(values url.Values, schema Schema) (*Query, error) {
	q := New(schema)

	conds, err := parseFilter(values, schema)
	if err != nil {
		return nil, err
	}
	q.Conditions = conds

	if raw, ok := last(values, ParamSort); ok && strings.TrimSpace(raw) != "" {
		sort, err := ParseSort(raw, schema)
		if err != nil {
			return nil, err
		}
		q.Sort = sort
	}

	if raw, ok := last(values, ParamFields); ok && strings.TrimSpace(raw) != "" {
		include, exclude, err := ParseFields(raw, schema)
		if err != nil {
			return nil, err
		}
		q.Fields = include
		if len(include) == 0 {
			q.Exclude = append(exclude, schema.Internal...)
		}
	}

	q.Page, q.Limit = Page(values, schema)
	return q, nil
}

func parseFilter(values url.Values, schema Schema) ([]Condition, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		if slices.Contains(reservedParams, key) || strings.Contains(key, "$") {
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	conds := make([]Condition, 0, len(keys))
	for _, key := range keys {
		m := filterKeyPattern.FindStringSubmatch(key)
		if m == nil {
			return nil, invalid("filter", key, "malformed parameter")
		}
		field, opName := m[1], m[2]

		kind, ok := schema.KindOf(field)
		if !ok {
			return nil, invalid("filter", field, "unknown field")
		}

		op := OpEq
		if opName != "" {
			op, ok = bracketOperators[opName]
			if !ok {
				return nil, invalid("operator", opName, "supported operators are gte, gt, lte, lt")
			}
		}

		raws := values[key]
		if op == OpEq && len(raws) > 1 && schema.isMultiValue(field) {
			in := make([]any, 0, len(raws))
			for _, raw := range raws {
				v, err := ParseValue(field, kind, raw)
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}
			conds = append(conds, Condition{Field: field, Op: OpIn, Value: in})
			continue
		}

		v, err := ParseValue(field, kind, raws[len(raws)-1])
		if err != nil {
			return nil, err
		}
		conds = append(conds, Condition{Field: field, Op: op, Value: v})
	}
	return conds, nil
}

// ParseValue coerces a raw query string value to the field's kind.
func ParseValue(field string, kind Kind, raw string) (any, error) {
	switch kind {
	case Number:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, invalid(field, raw, "expected a number")
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, invalid(field, raw, "expected true or false")
		}
		return b, nil
	case Date:
		raw = strings.TrimSpace(raw)
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC(), nil
		}
		if t, err := time.Parse(time.DateOnly, raw); err == nil {
			return t, nil
		}
		return nil, invalid(field, raw, "expected a date")
	case ObjectID:
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
		if err != nil {
			return nil, invalid(field, raw, "expected an object id")
		}
		return id, nil
	default:
		return raw, nil
	}
}

// ParseSort parses a comma-separated sort list such as "price,-ratingsAverage".
// IDField is appended as a tie-breaker.
func ParseSort(raw string, schema Schema) ([]SortField, error) {
	var sort []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		if _, ok := schema.KindOf(field); !ok {
			return nil, invalid("sort", field, "unknown field")
		}
		if slices.ContainsFunc(sort, func(s SortField) bool { return s.Field == field }) {
			continue
		}
		sort = append(sort, SortField{Field: field, Desc: desc})
	}
	return withTieBreaker(sort), nil
}

// ParseFields parses a comma-separated projection. Fields are either all
// included ("name,price") or all excluded ("-price,-summary"). Excluding
// IDField is ignored.
func ParseFields(raw string, schema Schema) (include, exclude []string, err error) {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		neg := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")
		if _, ok := schema.KindOf(field); !ok {
			return nil, nil, invalid("fields", field, "unknown field")
		}
		if neg {
			if field != IDField && !slices.Contains(exclude, field) {
				exclude = append(exclude, field)
			}
			continue
		}
		if !slices.Contains(include, field) {
			include = append(include, field)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return nil, nil, invalid("fields", raw, "cannot mix included and excluded fields")
	}
	return include, exclude, nil
}

// Page reads the page and limit parameters. Missing, malformed or
// non-positive values fall back to page 1 and the schema's default limit,
// and the limit is capped at the schema's maximum. The page is capped so
// that its skip fits in an int.
func Page(values url.Values, schema Schema) (page, limit int) {
	defLimit, maxLimit := schema.limits()

	page = positiveInt(values, ParamPage, 1)
	limit = positiveInt(values, ParamLimit, defLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > math.MaxInt/limit {
		page = math.MaxInt/limit + 1
	}
	return page, limit
}

func positiveInt(values url.Values, key string, def int) int {
	raw, ok := last(values, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// last returns the final value of a repeated parameter.
func last(values url.Values, key string) (string, bool) {
	vs := values[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}
