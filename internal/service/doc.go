// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the
// collections defined in internal/store.
//
// Key components:
//
//   - AuthService: signup, login, token checks and password management.
//   - TourService: populating tour relations and the tour reports.
//   - ReviewService: review authorship and the tour rating summary.
//
// Services receive their dependencies through constructor injection and
// depend only on store interfaces, never on a specific database backend.
// Expected failures are reported with the sentinel errors in errors.go,
// whose messages are shown to clients.
package service
