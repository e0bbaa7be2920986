package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/natours-api/internal/api"
	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/config"
	"github.com/phrazzld/natours-api/internal/platform/mailer"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/service/auth"
	"github.com/phrazzld/natours-api/internal/store"
	"github.com/phrazzld/natours-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger  *slog.Logger
	backend store.Backend
	now     func() time.Time

	// Service layer
	jwtService    auth.JWTService
	hasher        auth.PasswordHasher
	mailer        mailer.Mailer
	authService   *service.AuthService
	tourService   *service.TourService
	reviewService *service.ReviewService

	// Background work
	taskQueue  *task.Queue
	workerPool *task.WorkerPool

	// HTTP layer
	errors      *api.ErrorHandler
	rateLimiter *middleware.RateLimiter
	metrics     *middleware.Metrics
}

// newApplication creates a new application instance with all dependencies initialized.
// The backend must already be connected; it is closed by cleanup.
func newApplication(cfg *config.Config, logger *slog.Logger, backend store.Backend) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		backend: backend,
		now:     time.Now,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime", cfg.Auth.TokenLifetime.String())

	app.hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	app.mailer = mailer.NewLogMailer(logger)

	app.taskQueue = task.NewQueue(cfg.Tasks.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Tasks.Workers,
		TaskTimeout: cfg.Tasks.TaskTimeout,
	}, logger)

	app.authService = service.NewAuthService(backend.Users(), app.jwtService, app.hasher, app.mailer, logger).
		WithWelcomeMailer(task.NewQueuedMailer(app.mailer, app.taskQueue))
	app.tourService = service.NewTourService(backend.Tours(), backend.Users(), backend.Reviews(), logger)
	app.reviewService = service.NewReviewService(backend.Reviews(), backend.Tours(), backend.Users(), logger)

	app.errors = api.NewErrorHandler(cfg.Server.IsProduction())
	app.rateLimiter, err = middleware.NewRateLimiter(cfg.RateLimit, app.errors.Respond)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	app.metrics = middleware.NewMetrics()

	app.workerPool.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.workerPool != nil {
		app.taskQueue.Close()
		if err := app.workerPool.Stop(ctx); err != nil {
			app.logger.Error("Background tasks did not finish", "error", err)
		}
	}

	if app.rateLimiter != nil {
		if err := app.rateLimiter.Close(); err != nil {
			app.logger.Error("Error closing rate limiter store", "error", err)
		}
	}

	if app.backend != nil {
		if err := app.backend.Close(ctx); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
