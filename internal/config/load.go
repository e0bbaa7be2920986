package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NATOURS"

// Options locate the optional configuration files.
type Options struct {
	// EnvFile is a dotenv file loaded into the environment. Variables
	// already set in the environment are not overridden.
	EnvFile string

	// ConfigFile is a YAML file read before the environment.
	ConfigFile string
}

// DefaultOptions reads config.env and config.yaml from the working directory.
var DefaultOptions = Options{EnvFile: "config.env", ConfigFile: "config.yaml"}

// defaults are applied before files and environment. Every key is listed so
// that it can be bound to its environment variable.
var defaults = map[string]any{
	"server.port":               3000,
	"server.log_level":          "info",
	"server.env":                EnvDevelopment,
	"server.shutdown_timeout":   "10s",
	"database.driver":           DriverMongo,
	"database.url":              "",
	"database.name":             "natours",
	"database.password":         "",
	"auth.jwt_secret":           "",
	"auth.token_lifetime":       "2160h",
	"auth.cookie_lifetime_days": 90,
	"auth.bcrypt_cost":          12,
	"rate_limit.requests":       100,
	"rate_limit.window":         "1h",
	"rate_limit.redis_url":      "",
	"app.public_dir":            "public",
	"app.base_url":              "http://localhost:3000",
	"app.body_limit":            10 * 1024,
	"tasks.workers":             2,
	"tasks.queue_size":          100,
	"tasks.task_timeout":        "30s",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(DefaultOptions)
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if opts.ConfigFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
