package mongodb

import (
	"strings"

	"github.com/phrazzld/natours-api/internal/query"
	"go.mongodb.org/mongo-driver/bson"
)

var operators = map[query.Operator]string{
	query.OpEq:  "$eq",
	query.OpNe:  "$ne",
	query.OpGt:  "$gt",
	query.OpGte: "$gte",
	query.OpLt:  "$lt",
	query.OpLte: "$lte",
	query.OpIn:  "$in",
}

// Filter renders conditions as a BSON filter. Conditions on the same field
// are merged into one operator document; a field with only an equality
// condition is rendered as a plain value. A later condition replaces an
// earlier one with the same field and operator.
func Filter(conds []query.Condition) bson.M {
	byField := make(map[string]bson.M)
	var order []string
	for _, c := range conds {
		op, ok := operators[c.Op]
		if !ok {
			op = "$eq"
		}
		ops, seen := byField[c.Field]
		if !seen {
			ops = bson.M{}
			byField[c.Field] = ops
			order = append(order, c.Field)
		}
		ops[op] = c.Value
	}

	filter := make(bson.M, len(byField))
	for _, field := range order {
		ops := byField[field]
		if v, ok := ops["$eq"]; ok && len(ops) == 1 {
			filter[field] = v
			continue
		}
		filter[field] = ops
	}
	return filter
}

// Sort renders sort fields as an ordered BSON document.
func Sort(fields []query.SortField) bson.D {
	sort := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}

// Projection renders a resolved projection. It returns nil when every field
// is returned. Fields nested under another listed field are dropped, since
// the server rejects overlapping paths.
func Projection(p query.Projection) bson.D {
	fields, value := p.Include, 1
	if len(fields) == 0 {
		fields, value = p.Exclude, 0
	}
	if len(fields) == 0 {
		return nil
	}

	proj := make(bson.D, 0, len(fields))
	for _, f := range fields {
		if hasAncestor(f, fields) {
			continue
		}
		proj = append(proj, bson.E{Key: f, Value: value})
	}
	return proj
}

func hasAncestor(field string, fields []string) bool {
	for _, other := range fields {
		if other != field && strings.HasPrefix(field, other+".") {
			return true
		}
	}
	return false
}
