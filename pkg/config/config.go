package config

import (
	"fmt"
	"os"
	"time"

	"github.com/anonto42/nano-midea/feedsync/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port                 string        `validate:"required,numeric"`
	Env                  string        `validate:"required"`
	LogLevel             string        `validate:"oneof=debug info warn error"`
	FeedBaseURL          string        `validate:"required,url"`
	ProbeURL             string        `validate:"required,url"`
	StoreDriver          string        `validate:"oneof=sqlite postgres mongo memory"`
	SQLitePath           string        `validate:"required_if=StoreDriver sqlite"`
	PostgresURL          string        `validate:"required_if=StoreDriver postgres"`
	MongoURI             string        `validate:"required_if=StoreDriver mongo"`
	MongoDatabase        string        `validate:"required_if=StoreDriver mongo"`
	PollInterval         time.Duration `validate:"gt=0"`
	ReachabilityInterval time.Duration `validate:"gte=0"`
	HTTPTimeout          time.Duration `validate:"gt=0"`

	// Warnings collects problems found while loading, for the caller to log
	Warnings []string `validate:"-"`
}

// Load reads configuration from the environment, after loading a .env file if present
func Load() *Config {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, "No .env file found, assuming environment variables are set.")
	}

	getEnvDuration := func(key string, defaultValue time.Duration) time.Duration {
		d, warning := parseEnvDuration(key, defaultValue)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		return d
	}

	baseURL := getEnv("FEED_BASE_URL", "https://jsonplaceholder.typicode.com")
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		FeedBaseURL:          baseURL,
		ProbeURL:             getEnv("PROBE_URL", baseURL),
		StoreDriver:          getEnv("STORE_DRIVER", DriverSQLite),
		SQLitePath:           getEnv("SQLITE_PATH", "feedsync.db"),
		PostgresURL:          getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:             getEnv("MONGO_URI", ""),
		MongoDatabase:        getEnv("MONGO_DATABASE", "feedsync"),
		PollInterval:         getEnvDuration("POLL_INTERVAL", 5*time.Second),
		ReachabilityInterval: getEnvDuration("REACHABILITY_INTERVAL", 5*time.Second),
		HTTPTimeout:          getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
	}
	cfg.Warnings = warnings
	return cfg
}

// Validate checks the loaded values before anything is wired from them
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.NewValidation("invalid configuration", err)
	}
	return nil
}

// IsProduction reports whether the process runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseEnvDuration(key string, defaultValue time.Duration) (time.Duration, string) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, ""
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Sprintf("Invalid duration %q for %s, using %s", value, key, defaultValue)
	}
	return d, ""
}
