// Package postgres implements the store interfaces on PostgreSQL. Each
// collection is a table of JSONB documents encoded as relaxed MongoDB
// Extended JSON, so object ids and dates keep their types across both
// backends. Queries built by the query package are rendered into SQL
// predicates over the document column.
package postgres
