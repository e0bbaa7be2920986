package ciutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// GoModFile marks the project root.
const GoModFile = "go.mod"

// maxTraversal bounds the upward search for go.mod.
const maxTraversal = 10

// Project root errors
var (
	ErrProjectRootNotFound = errors.New("unable to find project root")
	ErrInvalidProjectRoot  = errors.New("invalid project root: no go.mod file found")
)

// FindProjectRoot returns the absolute path of the project root. It checks,
// in order, NATOURS_PROJECT_ROOT, the GitHub Actions workspace, the GitLab
// CI project directory and finally the nearest parent of the working
// directory holding a go.mod file.
func FindProjectRoot(logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, candidate := range []struct {
		source string
		dir    string
		use    bool
	}{
		{source: EnvProjectRoot, dir: os.Getenv(EnvProjectRoot), use: os.Getenv(EnvProjectRoot) != ""},
		{source: EnvGitHubWorkspace, dir: os.Getenv(EnvGitHubWorkspace), use: IsGitHubActions()},
		{source: EnvGitLabProjectDir, dir: os.Getenv(EnvGitLabProjectDir), use: IsGitLabCI()},
	} {
		if !candidate.use {
			continue
		}
		if !isValidProjectRoot(candidate.dir) {
			return "", fmt.Errorf("%w at %s", ErrInvalidProjectRoot, candidate.dir)
		}
		logger.Debug("Using project root from environment",
			"source", candidate.source,
			"project_root", candidate.dir)
		return candidate.dir, nil
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return findProjectRootByTraversal(workingDir, logger)
}

// findProjectRootByTraversal walks up from startDir to the first directory
// holding a go.mod file.
func findProjectRootByTraversal(startDir string, logger *slog.Logger) (string, error) {
	currentDir := startDir
	for i := 0; i < maxTraversal; i++ {
		if fileExists(filepath.Join(currentDir, GoModFile)) {
			logger.Debug("Found project root", "project_root", currentDir)
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", fmt.Errorf("%w from %s", ErrProjectRootNotFound, startDir)
}

// DevDataDir returns the directory of the sample data files.
func DevDataDir(logger *slog.Logger) (string, error) {
	root, err := FindProjectRoot(logger)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, "dev-data", "data")
	if !dirExists(dir) {
		return "", fmt.Errorf("dev data directory not found at %s", dir)
	}
	return dir, nil
}

func isValidProjectRoot(dir string) bool {
	return dirExists(dir) && fileExists(filepath.Join(dir, GoModFile))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
