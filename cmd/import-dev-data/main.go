// Package main implements the dev-data loader: it imports the sample tours,
// users and reviews into the configured database, or deletes every document.
//
// Usage:
//
//	import-dev-data -import [-dir path/to/data]
//	import-dev-data -delete
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/phrazzld/natours-api/internal/ciutil"
	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/platform/database"
	"github.com/phrazzld/natours-api/internal/platform/logger"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
)

// Data files read from the data directory.
const (
	toursFile   = "tours.json"
	usersFile   = "users.json"
	reviewsFile = "reviews.json"
)

var errNoMode = errors.New("specify exactly one of -import or -delete")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("import-dev-data: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import-dev-data", flag.ContinueOnError)
	fs.SetOutput(stdout)
	doImport := fs.Bool("import", false, "load the JSON files into the database")
	doDelete := fs.Bool("delete", false, "delete every tour, user and review")
	dir := fs.String("dir", "", "directory holding the JSON files (default: dev-data/data of the project)")
	envFile := fs.String("env-file", config.DefaultOptions.EnvFile, "dotenv file loaded into the environment")
	configFile := fs.String("config", config.DefaultOptions.ConfigFile, "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *doImport == *doDelete {
		return errNoMode
	}

	cfg, err := config.LoadWithOptions(config.Options{EnvFile: *envFile, ConfigFile: *configFile})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	l, err := logger.SetupWithWriter(cfg.Server, stdout)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	var data store.Dataset
	if *doImport {
		if *dir == "" {
			if *dir, err = ciutil.DevDataDir(l); err != nil {
				return err
			}
		}
		data, err = loadDataset(*dir, auth.NewBcryptHasher(cfg.Auth.BcryptCost), time.Now())
		if err != nil {
			return err
		}
	}

	backend, err := database.Open(ctx, cfg.Database, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			l.Error("failed to close database", "error", err)
		}
	}()

	if *doDelete {
		return deleteData(ctx, backend, l)
	}
	return importData(ctx, backend, data, l)
}

func importData(ctx context.Context, seeder store.Seeder, data store.Dataset, l *slog.Logger) error {
	if err := seeder.Import(ctx, data); err != nil {
		return fmt.Errorf("failed to import data: %w", err)
	}
	l.Info("Data successfully loaded!",
		"tours", len(data.Tours),
		"users", len(data.Users),
		"reviews", len(data.Reviews))
	return nil
}

func deleteData(ctx context.Context, seeder store.Seeder, l *slog.Logger) error {
	if err := seeder.Clear(ctx); err != nil {
		return fmt.Errorf("failed to delete data: %w", err)
	}
	l.Info("Data successfully deleted!")
	return nil
}

// seedUser is a user as written in users.json, with a plain password.
type seedUser struct {
	domain.User
	Password string `json:"password"`
}

// loadDataset reads the data files of dir. Plain passwords are hashed with
// hasher; values that already are bcrypt hashes are kept.
func loadDataset(dir string, hasher auth.PasswordHasher, now time.Time) (store.Dataset, error) {
	var data store.Dataset

	if err := readJSON(filepath.Join(dir, toursFile), &data.Tours); err != nil {
		return data, err
	}
	for _, tour := range data.Tours {
		tour.BeforeSave(now)
	}

	var users []seedUser
	if err := readJSON(filepath.Join(dir, usersFile), &users); err != nil {
		return data, err
	}
	data.Users = make([]*domain.User, len(users))
	for i := range users {
		user := users[i].User
		user.Password = users[i].Password
		if !isBcryptHash(user.Password) {
			hash, err := hasher.Hash(user.Password)
			if err != nil {
				return data, fmt.Errorf("failed to hash password of %s: %w", user.Email, err)
			}
			user.Password = hash
		}
		user.BeforeSave(now)
		data.Users[i] = &user
	}

	if err := readJSON(filepath.Join(dir, reviewsFile), &data.Reviews); err != nil {
		return data, err
	}
	for _, review := range data.Reviews {
		review.BeforeSave(now)
	}

	return data, nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && strings.HasPrefix(s, "$2")
}
