// Package query translates request query strings into backend-neutral
// document queries.
//
// A Query is built from url.Values against a Schema in a fixed order:
// filter, sort, project, paginate. The result only contains fields declared
// by the schema and values already coerced to the field's kind, so storage
// backends can render it without further validation. Shape applies the
// resolved projection to outgoing documents.
package query
