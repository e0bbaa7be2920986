package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "wrapped generic error",
			err:      fmt.Errorf("failed to do something: %w", errors.New("some error")),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("failed to do something: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "ErrUserNotFound",
			err:      ErrUserNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrUserNotFound",
			err:      fmt.Errorf("failed to find user: %w", ErrUserNotFound),
			expected: true,
		},
		{
			name:     "ErrDuplicate",
			err:      ErrDuplicate,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDuplicateError(t *testing.T) {
	err := fmt.Errorf("insert tour: %w", &DuplicateError{Collection: "tours", Value: "The Forest Hiker"})

	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("errors.As() did not find *DuplicateError in %v", err)
	}
	if dup.Value != "The Forest Hiker" {
		t.Errorf("DuplicateError.Value = %q, want %q", dup.Value, "The Forest Hiker")
	}
	want := "duplicate value The Forest Hiker in tours"
	if got := dup.Error(); got != want {
		t.Errorf("DuplicateError.Error() = %q, want %q", got, want)
	}
}

func TestStoreError(t *testing.T) {
	dup := &DuplicateError{Collection: "users", Value: "jonas@example.com"}
	err := fmt.Errorf("seed: %w", &StoreError{
		Collection: "users",
		Operation:  OpImport,
		Err:        fmt.Errorf("%w: %w", ErrTransactionFailed, dup),
	})

	want := "seed: import users failed: transaction failed: duplicate value jonas@example.com in users"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("errors.As() did not find *StoreError in %v", err)
	}
	if storeErr.Operation != OpImport {
		t.Errorf("Operation = %q, want %q", storeErr.Operation, OpImport)
	}
	if !errors.Is(err, ErrTransactionFailed) {
		t.Errorf("errors.Is() not recognizing ErrTransactionFailed")
	}
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("errors.Is() not recognizing the duplicate cause")
	}
}
