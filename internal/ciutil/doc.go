// Package ciutil detects the execution environment (CI or local) and
// resolves the paths and database URLs that tools and integration tests need
// regardless of the directory they run from.
package ciutil
