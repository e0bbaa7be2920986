package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shapeLocation struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates"`
}

type shapeDoc struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Price         float64         `json:"price"`
	CreatedAt     string          `json:"createdAt"`
	Version       int             `json:"__v"`
	StartLocation shapeLocation   `json:"startLocation"`
	Locations     []shapeLocation `json:"locations"`
}

func sampleShapeDoc() shapeDoc {
	return shapeDoc{
		ID:        "5c88fa8cf4afda39709c2955",
		Name:      "The Sea Explorer",
		Price:     497,
		CreatedAt: "2021-01-01T00:00:00Z",
		Version:   3,
		StartLocation: shapeLocation{
			Address:     "301 Biscayne Blvd, Miami",
			Coordinates: []float64{-80.185942, 25.774772},
		},
		Locations: []shapeLocation{
			{Address: "Lummus Park Beach", Coordinates: []float64{-80.128473, 25.781842}},
			{Address: "Islamorada", Coordinates: []float64{-80.647885, 24.909047}},
		},
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		name     string
		fields   string
		expected map[string]any
	}{
		{
			name:   "internal fields dropped by default",
			fields: "",
			expected: map[string]any{
				"_id":   "5c88fa8cf4afda39709c2955",
				"name":  "The Sea Explorer",
				"price": 497.0,
				"startLocation": map[string]any{
					"address":     "301 Biscayne Blvd, Miami",
					"coordinates": []any{-80.185942, 25.774772},
				},
				"locations": []any{
					map[string]any{"address": "Lummus Park Beach", "coordinates": []any{-80.128473, 25.781842}},
					map[string]any{"address": "Islamorada", "coordinates": []any{-80.647885, 24.909047}},
				},
			},
		},
		{
			name:   "inclusive",
			fields: "fields=name,price",
			expected: map[string]any{
				"_id":   "5c88fa8cf4afda39709c2955",
				"name":  "The Sea Explorer",
				"price": 497.0,
			},
		},
		{
			name:   "internal field requested",
			fields: "fields=name,createdAt",
			expected: map[string]any{
				"_id":       "5c88fa8cf4afda39709c2955",
				"name":      "The Sea Explorer",
				"createdAt": "2021-01-01T00:00:00Z",
			},
		},
		{
			name:   "nested include",
			fields: "fields=startLocation.address,locations.address",
			expected: map[string]any{
				"_id":           "5c88fa8cf4afda39709c2955",
				"startLocation": map[string]any{"address": "301 Biscayne Blvd, Miami"},
				"locations": []any{
					map[string]any{"address": "Lummus Park Beach"},
					map[string]any{"address": "Islamorada"},
				},
			},
		},
		{
			name:   "nested exclude",
			fields: "fields=-startLocation.coordinates,-locations,-price",
			expected: map[string]any{
				"_id":           "5c88fa8cf4afda39709c2955",
				"name":          "The Sea Explorer",
				"startLocation": map[string]any{"address": "301 Biscayne Blvd, Miami"},
			},
		},
	}

	schema := Schema{
		Fields: map[string]Kind{
			"name":                      String,
			"price":                     Number,
			"createdAt":                 Date,
			"__v":                       Number,
			"startLocation.address":     String,
			"startLocation.coordinates": Number,
			"locations":                 String,
			"locations.address":         String,
		},
		Internal: []string{"__v", "createdAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(mustValues(t, tt.fields), schema)
			require.NoError(t, err)

			got, err := Shape(sampleShapeDoc(), q)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestShape_KeepsVirtualID(t *testing.T) {
	doc := map[string]any{"_id": "abc", "id": "abc", "name": "n", "price": 1}
	q := &Query{Fields: []string{"price"}}

	got, err := Shape(doc, q)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"_id": "abc", "id": "abc", "price": 1.0}, got)
}

func TestShape_NilQuery(t *testing.T) {
	got, err := Shape(sampleShapeDoc(), nil)
	require.NoError(t, err)
	assert.Contains(t, got, "__v")
}

func TestShapeAll(t *testing.T) {
	q := &Query{Fields: []string{"name"}}
	docs := []shapeDoc{sampleShapeDoc(), sampleShapeDoc()}

	got, err := ShapeAll(docs, q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Len(t, m, 2)
		assert.Equal(t, "The Sea Explorer", m["name"])
	}
}

func TestShape_UnencodableDocument(t *testing.T) {
	_, err := Shape(map[string]any{"ch": make(chan int)}, nil)
	assert.Error(t, err)
}
