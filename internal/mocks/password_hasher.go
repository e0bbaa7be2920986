package mocks

import (
	"strings"

	"github.com/phrazzld/natours-api/internal/service/auth"
)

// HashPrefix marks passwords hashed by MockPasswordHasher.
const HashPrefix = "hashed:"

// MockPasswordHasher implements auth.PasswordHasher without bcrypt. A hash
// is the password prefixed with HashPrefix.
type MockPasswordHasher struct {
	// HashErr is returned by Hash when set
	HashErr error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashErr != nil {
		return "", m.HashErr
	}
	return HashPrefix + password, nil
}

// Compare implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.CompareCallCount++
	if !strings.HasPrefix(hashedPassword, HashPrefix) || hashedPassword[len(HashPrefix):] != password {
		return auth.ErrIncorrectPassword
	}
	return nil
}
