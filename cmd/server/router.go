package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/natours-api/internal/api"
	"github.com/phrazzld/natours-api/internal/api/middleware"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
)

// setupRouter creates and configures the application router with all
// middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()
	errs := app.errors

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestTime(app.now))
	r.Use(middleware.SecurityHeaders(app.config.Server.IsProduction()))
	r.Use(app.metrics.Handler)

	r.NotFound(errs.NotFound)
	r.MethodNotAllowed(errs.MethodNotAllowed)

	r.Get("/health", errs.Wrap(app.health))
	r.Handle("/metrics", app.metrics.Exposition())

	if dir := app.config.App.PublicDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(app.rateLimiter.Handler)
		r.Use(middleware.BodyLimit(app.config.App.BodyLimit))
		r.Use(middleware.NewSanitizer(errs.Respond).Handler)

		r.Route("/v1", app.routesV1)
	})

	return r
}

// routesV1 mounts the version 1 resources.
func (app *application) routesV1(r chi.Router) {
	errs := app.errors
	guard := middleware.NewAuthMiddleware(app.authService, errs.Respond)

	tours := api.NewTourHandler(app.backend.Tours(), app.tourService, app.now)
	reviews := api.NewReviewHandler(app.backend.Reviews(), app.reviewService, app.now)
	users := api.NewUserHandler(app.backend.Users(), app.authService, app.now)
	authn := api.NewAuthHandler(app.authService, api.CookieConfig{
		Lifetime: app.config.Auth.CookieLifetime(),
		Secure:   app.config.Server.IsProduction(),
	}, app.config.App.BaseURL, app.now)

	reviewRoutes := func(r chi.Router) {
		r.Use(guard.Protect)
		r.Get("/", errs.Wrap(reviews.GetAll()))
		r.With(guard.RestrictTo(domain.RoleUser)).Post("/", errs.Wrap(reviews.CreateOne()))

		r.Get("/{id}", errs.Wrap(reviews.GetOne()))
		r.Group(func(r chi.Router) {
			r.Use(guard.RestrictTo(domain.RoleUser, domain.RoleAdmin))
			r.Patch("/{id}", errs.Wrap(reviews.UpdateOne()))
			r.Delete("/{id}", errs.Wrap(reviews.DeleteOne()))
		})
	}

	r.Route("/tours", func(r chi.Router) {
		r.With(api.AliasTopTours).Get("/top-5-cheap", errs.Wrap(tours.GetAll()))
		r.Get("/tour-stats", errs.Wrap(tours.GetStats))
		r.With(
			guard.Protect,
			guard.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide),
		).Get("/monthly-plan/{year}", errs.Wrap(tours.GetMonthlyPlan))
		r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", errs.Wrap(tours.GetToursWithin))
		r.Get("/distances/{latlng}/unit/{unit}", errs.Wrap(tours.GetDistances))

		r.Route("/{"+api.TourIDParam+"}/reviews", reviewRoutes)

		r.Get("/", errs.Wrap(tours.GetAll()))
		r.Get("/{id}", errs.Wrap(tours.GetOne()))
		r.Group(func(r chi.Router) {
			r.Use(guard.Protect, guard.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
			r.Post("/", errs.Wrap(tours.CreateOne()))
			r.Patch("/{id}", errs.Wrap(tours.UpdateOne()))
			r.Delete("/{id}", errs.Wrap(tours.DeleteOne()))
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", errs.Wrap(authn.Signup))
		r.Post("/login", errs.Wrap(authn.Login))
		r.Get("/logout", errs.Wrap(authn.Logout))
		r.Post("/forgotPassword", errs.Wrap(authn.ForgotPassword))
		r.Patch("/resetPassword/{token}", errs.Wrap(authn.ResetPassword))

		r.Group(func(r chi.Router) {
			r.Use(guard.Protect)

			r.Patch("/updateMyPassword", errs.Wrap(authn.UpdatePassword))
			r.Get("/me", errs.Wrap(users.GetMe))
			r.Patch("/updateMe", errs.Wrap(users.UpdateMe))
			r.Delete("/deleteMe", errs.Wrap(users.DeleteMe))

			r.Group(func(r chi.Router) {
				r.Use(guard.RestrictTo(domain.RoleAdmin))

				r.Get("/", errs.Wrap(users.GetAll()))
				r.Post("/", errs.Wrap(users.CreateUser))
				r.Get("/{id}", errs.Wrap(users.GetOne()))
				r.Patch("/{id}", errs.Wrap(users.UpdateOne()))
				r.Delete("/{id}", errs.Wrap(users.DeleteOne()))
			})
		})
	})

	r.Route("/reviews", reviewRoutes)
}

// health reports whether the database answers.
func (app *application) health(w http.ResponseWriter, r *http.Request) error {
	if err := app.backend.Ping(r.Context()); err != nil {
		return api.NewAppError(http.StatusServiceUnavailable, "Database unavailable")
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{Status: shared.StatusSuccess})
	return nil
}
