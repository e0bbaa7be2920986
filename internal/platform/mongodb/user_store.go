package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore implements store.UserStore.
type UserStore struct {
	*Collection[domain.User, *domain.User]
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// NewUserStore creates a user store over coll.
func NewUserStore(coll *mongo.Collection, logger *slog.Logger) *UserStore {
	return &UserStore{
		Collection: NewCollection[domain.User](coll, domain.UserSchema, logger),
	}
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.FindOne(ctx, []query.Condition{
		{Field: "email", Op: query.OpEq, Value: strings.ToLower(strings.TrimSpace(email))},
	})
	return user, userNotFound(err)
}

// GetByResetToken implements store.UserStore.GetByResetToken.
func (s *UserStore) GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*domain.User, error) {
	user, err := s.FindOne(ctx, []query.Condition{
		{Field: "passwordResetToken", Op: query.OpEq, Value: hashedToken},
		{Field: "passwordResetExpires", Op: query.OpGt, Value: now},
	})
	return user, userNotFound(err)
}

// GetMany implements store.UserStore.GetMany. Users are returned in the
// order of ids.
func (s *UserStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	in := make([]any, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	users, err := s.find(ctx, s.filter([]query.Condition{{Field: query.IDField, Op: query.OpIn, Value: in}}))
	if err != nil {
		return nil, err
	}
	return store.OrderByIDs(users, ids), nil
}

func userNotFound(err error) error {
	if err != nil && errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", store.ErrUserNotFound, err)
	}
	return err
}
