package ciutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeProject creates a project tree with a go.mod and the dev data
// directory, returning its root.
func makeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, GoModFile), []byte("module example\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dev-data", "data"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cmd", "tool"), 0o755))
	return root
}

func TestFindProjectRootFromEnvironment(t *testing.T) {
	root := makeProject(t)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "explicit override", env: map[string]string{EnvProjectRoot: root}},
		{name: "GitHub workspace", env: map[string]string{EnvGitHubActions: "true", EnvGitHubWorkspace: root}},
		{name: "GitLab project dir", env: map[string]string{EnvGitLabCI: "true", EnvGitLabProjectDir: root}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCIEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := FindProjectRoot(nil)
			require.NoError(t, err)
			assert.Equal(t, root, got)
		})
	}
}

func TestFindProjectRootInvalidOverride(t *testing.T) {
	clearCIEnv(t)
	t.Setenv(EnvProjectRoot, t.TempDir())

	_, err := FindProjectRoot(nil)

	assert.ErrorIs(t, err, ErrInvalidProjectRoot)
}

func TestFindProjectRootByTraversal(t *testing.T) {
	root := makeProject(t)

	got, err := findProjectRootByTraversal(filepath.Join(root, "cmd", "tool"), discard())
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = findProjectRootByTraversal(t.TempDir(), discard())
	assert.ErrorIs(t, err, ErrProjectRootNotFound)
}

func TestDevDataDir(t *testing.T) {
	root := makeProject(t)
	clearCIEnv(t)
	t.Setenv(EnvProjectRoot, root)

	dir, err := DevDataDir(nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dev-data", "data"), dir)
}

func TestDevDataDirMissing(t *testing.T) {
	root := makeProject(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "dev-data")))
	clearCIEnv(t)
	t.Setenv(EnvProjectRoot, root)

	_, err := DevDataDir(nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev data directory not found")
}
