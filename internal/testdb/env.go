//go:build integration

package testdb

import "github.com/phrazzld/natours-api/internal/ciutil"

// GetTestDatabaseURL returns the PostgreSQL URL for tests, or "" when none
// is configured.
func GetTestDatabaseURL() string {
	return ciutil.GetTestDatabaseURL(nil)
}

// GetTestMongoURL returns the MongoDB URL for tests, or "" when none is
// configured.
func GetTestMongoURL() string {
	return ciutil.GetTestMongoURL()
}
