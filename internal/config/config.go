package config

import (
	"strings"
	"time"
)

// Environments recognized by the server.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Database drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// PasswordPlaceholder in a database URL is replaced with the database password.
const PasswordPlaceholder = "<PASSWORD>"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Env             string        `mapstructure:"env" validate:"required,oneof=development production test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// IsProduction reports whether error details must be hidden from clients.
func (s ServerConfig) IsProduction() bool {
	return s.Env == EnvProduction
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"required,oneof=mongo postgres"`
	URL      string `mapstructure:"url" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	Password string `mapstructure:"password"`
}

// DSN returns the connection URL with the password substituted in.
func (d DatabaseConfig) DSN() string {
	return strings.ReplaceAll(d.URL, PasswordPlaceholder, d.Password)
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime      time.Duration `mapstructure:"token_lifetime" validate:"required,gt=0"`
	CookieLifetimeDays int           `mapstructure:"cookie_lifetime_days" validate:"required,gt=0"`
	BcryptCost         int           `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`
}

// CookieLifetime is the lifetime of the jwt cookie.
func (a AuthConfig) CookieLifetime() time.Duration {
	return time.Duration(a.CookieLifetimeDays) * 24 * time.Hour
}

// RateLimitConfig limits the requests per client IP on the API routes.
type RateLimitConfig struct {
	Requests int64         `mapstructure:"requests" validate:"required,gt=0"`
	Window   time.Duration `mapstructure:"window" validate:"required,gt=0"`
	// RedisURL selects a shared redis store. The in-memory store is used when empty.
	RedisURL string `mapstructure:"redis_url"`
}

// AppConfig contains settings of the HTTP surface.
type AppConfig struct {
	PublicDir string `mapstructure:"public_dir"`
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	BodyLimit int64  `mapstructure:"body_limit" validate:"required,gt=0"`
}

// TasksConfig sizes the background worker pool. Zero values select the
// pool defaults.
type TasksConfig struct {
	Workers     int           `mapstructure:"workers" validate:"gte=0"`
	QueueSize   int           `mapstructure:"queue_size" validate:"gte=0"`
	TaskTimeout time.Duration `mapstructure:"task_timeout" validate:"gte=0"`
}
