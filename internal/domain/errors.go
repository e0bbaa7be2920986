package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is wrapped by ValidationErrors.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is not a valid object id.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidCoordinates is returned when a lat,lng pair cannot be parsed.
	ErrInvalidCoordinates = errors.New("Please provide latitude and longitude in the format lat,lng.")

	// ErrInvalidUnit is returned for distance units other than mi and km.
	ErrInvalidUnit = errors.New("Please provide the unit as mi or km.")

	// ErrInvalidYear is returned when a monthly plan year is malformed.
	ErrInvalidYear = errors.New("Please provide a valid year.")
)

// InvalidIDError carries the rejected id value.
type InvalidIDError struct {
	Field string
	Value string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Value)
}

func (e *InvalidIDError) Unwrap() error {
	return ErrInvalidID
}
