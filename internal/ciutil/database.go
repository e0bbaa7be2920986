package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Connection defaults of the CI database services.
const (
	StandardCIUser     = "postgres"
	StandardCIPassword = "postgres"
	StandardCIDatabase = "natours_test"
	StandardCIOptions  = "sslmode=disable"
)

// GetTestDatabaseURL returns the PostgreSQL URL for integration tests from
// NATOURS_TEST_DB_URL or DATABASE_URL, or "" when neither is set. In CI the
// URL is completed with the standard database name and options.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvTestDBURL, EnvDatabaseURL}, "", logger)
	if dbURL == "" || !IsCI() {
		return dbURL
	}

	standardized, err := standardizeDatabaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Warn("Keeping unparsable test database URL", "error", err)
		}
		return dbURL
	}
	return standardized
}

// GetTestMongoURL returns the MongoDB URL for integration tests.
func GetTestMongoURL() string {
	return GetEnvWithFallbacks([]string{EnvTestMongoURL}, "", nil)
}

// standardizeDatabaseURL fills in the database name and options of a
// postgres URL when they are missing. Other URLs are returned unchanged.
func standardizeDatabaseURL(dbURL string) (string, error) {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return dbURL, nil
	}

	if parsed.User == nil {
		parsed.User = url.UserPassword(StandardCIUser, StandardCIPassword)
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		parsed.Path = "/" + StandardCIDatabase
	}
	if parsed.RawQuery == "" {
		parsed.RawQuery = StandardCIOptions
	}
	return parsed.String(), nil
}
