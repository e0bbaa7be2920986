//go:build integration

// Package testdb provides utilities for database integration tests.
//
// Tests are skipped unless a database URL is configured:
//
//   - DATABASE_URL or NATOURS_TEST_DB_URL: PostgreSQL connection string
//   - NATOURS_TEST_MONGO_URL: MongoDB connection string
//
// Each backend opens an isolated database (a fresh MongoDB database, or the
// PostgreSQL schema truncated before use), loads the fixture Dataset, and
// runs RunBackendSuite, so both storage engines are held to the same
// behavior.
package testdb
