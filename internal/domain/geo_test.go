package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		raw      string
		expected LatLng
		wantErr  bool
	}{
		{raw: "34.111745,-118.113491", expected: LatLng{Lat: 34.111745, Lng: -118.113491}},
		{raw: " 51.4 , -0.12 ", expected: LatLng{Lat: 51.4, Lng: -0.12}},
		{raw: "34.111745", wantErr: true},
		{raw: "north,west", wantErr: true},
		{raw: "91,0", wantErr: true},
		{raw: "0,181", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLatLng(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("MI")
	require.NoError(t, err)
	assert.Equal(t, Miles, u)
	assert.Equal(t, 3963.2, u.EarthRadius())
	assert.Equal(t, 0.000621371, u.FromMeters())

	u, err = ParseUnit("km")
	require.NoError(t, err)
	assert.Equal(t, 6378.1, u.EarthRadius())
	assert.Equal(t, 0.001, u.FromMeters())
	assert.InDelta(t, 1.0, u.RadiusRadians(6378.1), 1e-12)

	_, err = ParseUnit("furlong")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestHaversineMeters(t *testing.T) {
	losAngeles := LatLng{Lat: 34.052235, Lng: -118.243683}
	sanFrancisco := LatLng{Lat: 37.774929, Lng: -122.419416}

	assert.InDelta(t, 559_000, HaversineMeters(losAngeles, sanFrancisco), 2_000)
	assert.Zero(t, HaversineMeters(losAngeles, losAngeles))
}

func TestLocation_LatLng(t *testing.T) {
	var nilLoc *Location
	_, ok := nilLoc.LatLng()
	assert.False(t, ok)

	p, ok := (&Location{Coordinates: []float64{-80.1, 25.7}}).LatLng()
	require.True(t, ok)
	assert.Equal(t, LatLng{Lat: 25.7, Lng: -80.1}, p)
	assert.Equal(t, []float64{-80.1, 25.7}, p.GeoJSON())
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("wwwww")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidID))
	assert.Equal(t, "Invalid _id: wwwww", err.Error())

	_, err = ParseFieldID("tourId", "nope")
	assert.Equal(t, "Invalid tourId: nope", err.Error())
}
