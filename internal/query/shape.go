package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// alwaysKept are response keys that survive every projection.
var alwaysKept = []string{IDField, "id"}

// Shape encodes doc as JSON and applies the query's projection to the
// result. Dotted fields address embedded documents.
func Shape(doc any, q *Query) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if q == nil {
		return m, nil
	}

	p := q.Projection()
	switch {
	case len(p.Include) > 0:
		out := make(map[string]any, len(p.Include)+1)
		for _, key := range alwaysKept {
			if v, ok := m[key]; ok {
				out[key] = v
			}
		}
		for _, field := range p.Include {
			copyPath(out, m, strings.Split(field, "."))
		}
		return out, nil
	case len(p.Exclude) > 0:
		for _, field := range p.Exclude {
			deletePath(m, strings.Split(field, "."))
		}
	}
	return m, nil
}

// ShapeAll applies Shape to every document.
func ShapeAll[T any](docs []T, q *Query) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		m, err := Shape(doc, q)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func copyPath(dst, src map[string]any, path []string) {
	v, ok := src[path[0]]
	if !ok {
		return
	}
	if len(path) == 1 {
		dst[path[0]] = v
		return
	}

	switch child := v.(type) {
	case map[string]any:
		next, ok := dst[path[0]].(map[string]any)
		if !ok {
			next = map[string]any{}
			dst[path[0]] = next
		}
		copyPath(next, child, path[1:])
	case []any:
		// Arrays of embedded documents keep the selected key of each element.
		items := make([]any, 0, len(child))
		for _, item := range child {
			im, ok := item.(map[string]any)
			if !ok {
				continue
			}
			sub := map[string]any{}
			copyPath(sub, im, path[1:])
			items = append(items, sub)
		}
		dst[path[0]] = items
	}
}

func deletePath(m map[string]any, path []string) {
	if len(path) == 1 {
		delete(m, path[0])
		return
	}
	switch child := m[path[0]].(type) {
	case map[string]any:
		deletePath(child, path[1:])
	case []any:
		for _, item := range child {
			if im, ok := item.(map[string]any); ok {
				deletePath(im, path[1:])
			}
		}
	}
}
