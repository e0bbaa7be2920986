//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/natours-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 10 * time.Second

// GetTestDBWithT opens the PostgreSQL test database with every migration
// applied, or skips the test when no URL is configured. The connection is
// closed when the test completes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Database ping failed")
	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, nil), "Failed to apply migrations")

	return db
}

// GetTestMongoWithT returns a MongoDB database unique to the test, or skips
// the test when no URL is configured. The database is dropped when the test
// completes.
func GetTestMongoWithT(t *testing.T) *mongo.Database {
	t.Helper()

	mongoURL := GetTestMongoURL()
	if mongoURL == "" {
		t.Skip("NATOURS_TEST_MONGO_URL not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	require.NoError(t, err, "Failed to connect to mongodb")
	require.NoError(t, client.Ping(ctx, nil), "MongoDB ping failed")

	db := client.Database("natours_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}
