package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested document does not exist in the
	// store or is hidden from reads.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("entity already exists")

	// ErrNotImplemented is returned when a backend does not support an
	// operation.
	ErrNotImplemented = errors.New("method not implemented")

	// ErrInvalidEntity is returned when a document cannot be encoded for
	// storage or has no id where one is required.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
)

// DuplicateError reports the value that collided with a unique index.
type DuplicateError struct {
	Collection string
	Value      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value %s in %s", e.Value, e.Collection)
}

// Unwrap returns ErrDuplicate so callers can use errors.Is.
func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Seeding operations reported by StoreError.
const (
	OpImport = "import"
	OpClear  = "clear"
)

// StoreError reports which collection a bulk seeding operation failed on.
type StoreError struct {
	Collection string
	Operation  string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Operation, e.Collection, e.Err)
}

// Unwrap returns the cause so that errors.Is and errors.As see through it.
func (e *StoreError) Unwrap() error {
	return e.Err
}
