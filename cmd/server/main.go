// Package main implements the entry point for the Natours API server, a
// REST API for browsing, reviewing and managing tours.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/platform/database"
	"github.com/phrazzld/natours-api/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("natours-api: %v", err)
	}
}

// run parses args, loads the configuration and either runs a migration
// command or serves the API until ctx is canceled.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stdout)
	envFile := fs.String("env-file", config.DefaultOptions.EnvFile, "dotenv file loaded into the environment")
	configFile := fs.String("config", config.DefaultOptions.ConfigFile, "YAML configuration file")
	migrateCmd := fs.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadWithOptions(config.Options{EnvFile: *envFile, ConfigFile: *configFile})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.SetupWithWriter(cfg.Server, stdout)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"driver", cfg.Database.Driver)

	if *migrateCmd != "" {
		return handleMigrations(ctx, cfg, *migrateCmd, l)
	}

	backend, err := database.Open(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, l, backend)
	if err != nil {
		_ = backend.Close(context.Background())
		return err
	}
	return app.Run(ctx)
}
