package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/natours-api/internal/service/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockJWTService implements auth.JWTService for testing
type MockJWTService struct {
	// GenerateTokenFn allows test cases to mock the GenerateToken behavior
	GenerateTokenFn func(ctx context.Context, userID primitive.ObjectID) (string, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       string
	Err         error
	ValidateErr error
	Claims      *auth.Claims
}

var _ auth.JWTService = (*MockJWTService)(nil)

// NewMockJWTService returns a mock that issues "token-<user id hex>" and
// accepts exactly those tokens, reporting them as issued at issuedAt.
func NewMockJWTService(issuedAt time.Time) *MockJWTService {
	const prefix = "token-"
	return &MockJWTService{
		GenerateTokenFn: func(_ context.Context, userID primitive.ObjectID) (string, error) {
			return prefix + userID.Hex(), nil
		},
		ValidateTokenFn: func(_ context.Context, tokenString string) (*auth.Claims, error) {
			if len(tokenString) <= len(prefix) || tokenString[:len(prefix)] != prefix {
				return nil, auth.ErrInvalidToken
			}
			id, err := primitive.ObjectIDFromHex(tokenString[len(prefix):])
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id, IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(time.Hour)}, nil
		},
	}
}

// GenerateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateToken(ctx context.Context, userID primitive.ObjectID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	return m.Token, m.Err
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}
