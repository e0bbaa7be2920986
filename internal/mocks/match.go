package mocks

import (
	"bytes"
	"strings"
	"time"

	"github.com/phrazzld/natours-api/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lookup returns the value at a dotted path of doc.
func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case bson.M:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case bson.D:
			found := false
			for _, e := range m {
				if e.Key == key {
					cur, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

// elements returns the elements of an array value, or v itself.
func elements(v any) []any {
	switch a := v.(type) {
	case bson.A:
		return a
	case []any:
		return a
	default:
		return []any{v}
	}
}

// matches reports whether doc satisfies every condition. Array fields match
// when any element does; OpNe on an array requires that no element is equal.
// A missing field only satisfies OpNe.
func matches(doc bson.M, conds []query.Condition) bool {
	for _, c := range conds {
		if !matchOne(doc, c) {
			return false
		}
	}
	return true
}

func matchOne(doc bson.M, c query.Condition) bool {
	v, ok := lookup(doc, c.Field)
	if !ok || v == nil {
		return c.Op == query.OpNe
	}

	if c.Op == query.OpNe {
		for _, e := range elements(v) {
			if cmp, ok := compare(e, c.Value); ok && cmp == 0 {
				return false
			}
		}
		return true
	}

	for _, e := range elements(v) {
		if satisfies(e, c.Op, c.Value) {
			return true
		}
	}
	return false
}

func satisfies(v any, op query.Operator, want any) bool {
	if op == query.OpIn {
		for _, w := range elements(want) {
			if cmp, ok := compare(v, w); ok && cmp == 0 {
				return true
			}
		}
		return false
	}

	cmp, ok := compare(v, want)
	if !ok {
		return false
	}
	switch op {
	case query.OpEq:
		return cmp == 0
	case query.OpGt:
		return cmp > 0
	case query.OpGte:
		return cmp >= 0
	case query.OpLt:
		return cmp < 0
	case query.OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// normalize maps stored and query values onto comparable Go types.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	default:
		return v
	}
}

// compare orders two values of the same type. ok is false when the types
// differ or are not ordered.
func compare(a, b any) (int, bool) {
	switch x := normalize(a).(type) {
	case float64:
		y, ok := normalize(b).(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := normalize(b).(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case primitive.ObjectID:
		y, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x[:], y[:]), true
	default:
		return 0, false
	}
}

// sortKey is the value a document is ordered by for field. Arrays sort by
// their first element and missing values sort before everything else.
func sortKey(doc bson.M, field string) any {
	v, ok := lookup(doc, field)
	if !ok {
		return nil
	}
	if els := elements(v); len(els) > 0 {
		return els[0]
	}
	return nil
}

// less orders two documents by sort.
func less(a, b bson.M, sort []query.SortField) bool {
	for _, s := range sort {
		ka, kb := sortKey(a, s.Field), sortKey(b, s.Field)
		var cmp int
		switch {
		case ka == nil && kb == nil:
			cmp = 0
		case ka == nil:
			cmp = -1
		case kb == nil:
			cmp = 1
		default:
			cmp, _ = compare(ka, kb)
		}
		if s.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
	}
	return false
}
