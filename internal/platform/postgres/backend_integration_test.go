//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/platform/postgres"
	"github.com/phrazzld/natours-api/internal/store"
	"github.com/phrazzld/natours-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBackend(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.RunBackendSuite(t, postgres.New(db, logger.Discard()))
}

func TestMigrateStatusAndVersion(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	for _, cmd := range []string{postgres.MigrateStatus, postgres.MigrateVersion} {
		assert.NoError(t, postgres.Migrate(ctx, db, cmd, logger.Discard()), cmd)
	}
	err := postgres.Migrate(ctx, db, "sideways", logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestImportRollsBackOnFailure(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()
	backend := postgres.New(db, logger.Discard())

	user := &domain.User{ID: primitive.NewObjectID(), Name: "Rolled Back", Email: "rolled-back@example.com", Role: domain.RoleUser}
	tour := func() *domain.Tour {
		return &domain.Tour{ID: primitive.NewObjectID(), Name: "The Twin Tour", Duration: 3, MaxGroupSize: 5, Difficulty: domain.DifficultyEasy, Price: 100}
	}

	err := backend.Import(ctx, store.Dataset{Users: []*domain.User{user}, Tours: []*domain.Tour{tour(), tour()}})
	require.Error(t, err)

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr), "got %v", err)
	assert.Equal(t, postgres.ToursTable, storeErr.Collection)
	assert.ErrorIs(t, err, store.ErrTransactionFailed)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = backend.Users().Get(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound, "users inserted before the failure are rolled back")
}
