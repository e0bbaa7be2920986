package ciutil

import (
	"log/slog"
	"os"

	"github.com/phrazzld/natours-api/internal/redact"
)

// Environment variables read by this package.
const (
	// CI detection
	EnvCI               = "CI"
	EnvGitHubActions    = "GITHUB_ACTIONS"
	EnvGitHubWorkspace  = "GITHUB_WORKSPACE"
	EnvGitLabCI         = "GITLAB_CI"
	EnvGitLabProjectDir = "CI_PROJECT_DIR"

	// EnvProjectRoot overrides project root detection.
	EnvProjectRoot = "NATOURS_PROJECT_ROOT"

	// Test database URLs
	EnvDatabaseURL  = "DATABASE_URL"
	EnvTestDBURL    = "NATOURS_TEST_DB_URL"
	EnvTestMongoURL = "NATOURS_TEST_MONGO_URL"
)

// IsCI reports whether the process runs under a CI provider.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" ||
		os.Getenv(EnvGitHubActions) != "" ||
		os.Getenv(EnvGitLabCI) != ""
}

// IsGitHubActions reports whether the process runs under GitHub Actions
// with a workspace.
func IsGitHubActions() bool {
	return os.Getenv(EnvGitHubActions) != "" && os.Getenv(EnvGitHubWorkspace) != ""
}

// IsGitLabCI reports whether the process runs under GitLab CI with a
// project directory.
func IsGitLabCI() bool {
	return os.Getenv(EnvGitLabCI) != "" && os.Getenv(EnvGitLabProjectDir) != ""
}

// GetEnvWithFallbacks returns the value of the first non-empty variable of
// envVars, or defaultValue. Using any variable but the first is logged as a
// legacy name.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("Using legacy environment variable",
				"used_var", envVar,
				"preferred_var", envVars[0],
				"value", redact.String(val),
			)
		}
		return val
	}
	return defaultValue
}
