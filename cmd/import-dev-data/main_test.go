package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/mocks"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var loadedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func TestLoadDataset(t *testing.T) {
	data, err := loadDataset(filepath.Join("..", "..", "dev-data", "data"), &mocks.MockPasswordHasher{}, loadedAt)
	require.NoError(t, err)

	require.Len(t, data.Tours, 3)
	assert.Equal(t, "the-forest-hiker", data.Tours[0].Slug)
	assert.Equal(t, loadedAt, data.Tours[0].CreatedAt)
	require.NotNil(t, data.Tours[0].StartLocation)
	assert.Equal(t, "Point", data.Tours[0].StartLocation.Type)

	require.Len(t, data.Users, 5)
	for _, user := range data.Users {
		assert.Equal(t, mocks.HashPrefix+"test1234", user.Password, user.Email)
		assert.NoError(t, domain.Validate(user))
	}

	require.Len(t, data.Reviews, 3)
	for _, review := range data.Reviews {
		assert.False(t, review.Tour.IsZero())
		assert.False(t, review.User.IsZero())
	}
}

func TestLoadDatasetKeepsBcryptHashes(t *testing.T) {
	const hash = "$2a$12$Q0grHjH9PXc6SxivC8m12.2mZJ9BbKcgFpwSG4Y1ZEII8HJVzWeyS"
	dir := t.TempDir()
	writeFile(t, dir, toursFile, `[]`)
	writeFile(t, dir, reviewsFile, `[]`)
	writeFile(t, dir, usersFile, `[{"name":"Hashed","email":"h@example.com","password":"`+hash+`"}]`)

	data, err := loadDataset(dir, &mocks.MockPasswordHasher{}, loadedAt)

	require.NoError(t, err)
	require.Len(t, data.Users, 1)
	assert.Equal(t, hash, data.Users[0].Password)
	assert.Equal(t, domain.RoleUser, data.Users[0].Role)
}

func TestLoadDatasetErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadDataset(t.TempDir(), &mocks.MockPasswordHasher{}, loadedAt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read")
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, toursFile, `{"not":"a list"}`)
		_, err := loadDataset(dir, &mocks.MockPasswordHasher{}, loadedAt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})
}

func TestImportAndDelete(t *testing.T) {
	ctx := context.Background()
	backend := mocks.NewBackend()
	l := logger.Discard()

	data, err := loadDataset(filepath.Join("..", "..", "dev-data", "data"), &mocks.MockPasswordHasher{}, loadedAt)
	require.NoError(t, err)

	require.NoError(t, importData(ctx, backend, data, l))
	assert.Equal(t, 3, backend.TourStore.Len())
	assert.Equal(t, 5, backend.UserStore.Len())
	assert.Equal(t, 3, backend.ReviewStore.Len())

	id, _ := primitive.ObjectIDFromHex("5c8a1d5b0190b214360dc057")
	admin, err := backend.UserStore.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	require.NoError(t, deleteData(ctx, backend, l))
	assert.Equal(t, 0, backend.TourStore.Len())
	assert.Equal(t, 0, backend.UserStore.Len())
	assert.Equal(t, 0, backend.ReviewStore.Len())
}

func TestRunRequiresOneMode(t *testing.T) {
	var out bytes.Buffer
	for _, args := range [][]string{nil, {"-import", "-delete"}} {
		err := run(context.Background(), args, &out)
		assert.ErrorIs(t, err, errNoMode)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
