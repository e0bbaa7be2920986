package database

import (
	"context"
	"testing"

	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "mysql://x"}, logger.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
}
