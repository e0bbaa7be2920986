// Package config handles configuration loading, parsing, and validation
// from various sources (a dotenv file, environment variables, an optional
// YAML file). It provides type-safe access to application settings needed by
// different components while keeping configuration details separate from
// business logic.
package config
