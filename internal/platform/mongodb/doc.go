// Package mongodb implements the store interfaces on MongoDB using the
// official Go driver. Queries built by the query package are rendered into
// BSON filters, sorts and projections, and reports are computed with
// aggregation pipelines.
package mongodb
