package domain

import (
	"math"
	"strconv"
	"strings"
)

// EarthRadiusMeters is the equatorial radius used for distance math.
const EarthRadiusMeters = 6378100.0

// Unit is a distance unit accepted by the geospatial routes.
type Unit string

// Supported units.
const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

// ParseUnit validates a unit path parameter.
func ParseUnit(raw string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(raw))); u {
	case Miles, Kilometers:
		return u, nil
	default:
		return "", ErrInvalidUnit
	}
}

// EarthRadius returns the earth's radius expressed in u.
func (u Unit) EarthRadius() float64 {
	if u == Miles {
		return 3963.2
	}
	return 6378.1
}

// FromMeters is the factor converting meters to u.
func (u Unit) FromMeters() float64 {
	if u == Miles {
		return 0.000621371
	}
	return 0.001
}

// RadiusRadians converts a distance in u to radians on the earth's surface,
// as expected by a $centerSphere query.
func (u Unit) RadiusRadians(distance float64) float64 {
	return distance / u.EarthRadius()
}

// LatLng is a point given as latitude and longitude in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// ParseLatLng parses a "lat,lng" path parameter.
func ParseLatLng(raw string) (LatLng, error) {
	lat, lng, ok := strings.Cut(raw, ",")
	if !ok {
		return LatLng{}, ErrInvalidCoordinates
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || la < -90 || la > 90 {
		return LatLng{}, ErrInvalidCoordinates
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil || ln < -180 || ln > 180 {
		return LatLng{}, ErrInvalidCoordinates
	}
	return LatLng{Lat: la, Lng: ln}, nil
}

// GeoJSON returns the point as [lng, lat] coordinates.
func (p LatLng) GeoJSON() []float64 {
	return []float64{p.Lng, p.Lat}
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b LatLng) float64 {
	rad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Location is a GeoJSON point with optional descriptive fields.
type Location struct {
	Type        string    `json:"type" bson:"type" validate:"oneof=Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"len=2"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty"`
}

// LatLng returns the location's coordinates. ok is false when the
// location has no coordinates.
func (l *Location) LatLng() (LatLng, bool) {
	if l == nil || len(l.Coordinates) != 2 {
		return LatLng{}, false
	}
	return LatLng{Lng: l.Coordinates[0], Lat: l.Coordinates[1]}, true
}

func (l *Location) normalize() {
	if l != nil && l.Type == "" {
		l.Type = "Point"
	}
}
