// Package store defines interfaces for data persistence operations.
//
// Collections are accessed through the generic Repository, which executes
// backend-neutral queries built by the query package. Collection-specific
// operations such as aggregations live on TourStore, UserStore and
// ReviewStore. Implementations are provided for MongoDB and for PostgreSQL
// JSONB documents under internal/platform.
package store
