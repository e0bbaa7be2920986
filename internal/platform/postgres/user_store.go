package postgres

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
)

// UsersTable stores user documents.
const UsersTable = "users"

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	*Collection[domain.User, *domain.User]
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	return &PostgresUserStore{
		Collection: NewCollection[domain.User](db, UsersTable, domain.UserSchema, nil, logger),
	}
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.FindOne(ctx, []query.Condition{
		{Field: "email", Op: query.OpEq, Value: strings.ToLower(strings.TrimSpace(email))},
	})
	return user, userNotFound(err)
}

// GetByResetToken implements store.UserStore.GetByResetToken
func (s *PostgresUserStore) GetByResetToken(
	ctx context.Context,
	hashedToken string,
	now time.Time,
) (*domain.User, error) {
	user, err := s.FindOne(ctx, []query.Condition{
		{Field: "passwordResetToken", Op: query.OpEq, Value: hashedToken},
		{Field: "passwordResetExpires", Op: query.OpGt, Value: now},
	})
	return user, userNotFound(err)
}

// GetMany implements store.UserStore.GetMany. Users are returned in the
// order of ids.
func (s *PostgresUserStore) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	in := make([]any, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	b := newBuilder(s.arrays)
	where := b.Where(s.visible([]query.Condition{{Field: query.IDField, Op: query.OpIn, Value: in}}))
	users, err := s.query(ctx, fmt.Sprintf("SELECT doc FROM %s WHERE %s", s.table, where), b.args...)
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
