// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// Env selects the logger flavour: local, dev, test or prod. Defaults to "local".
	Env string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// StoreDriver picks the place store: postgres, mongo or memory.
	StoreDriver string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// AutoMigrate applies pending goose migrations at startup.
	AutoMigrate bool

	// MongoURI and MongoDatabase locate the MongoDB store. MongoURI is required for mongo.
	MongoURI      string
	MongoDatabase string

	// RedisAddr enables the aggregate cache when non-empty.
	RedisAddr     string
	RedisPassword string

	// AggregateCacheTTL bounds how long a cached aggregate may be served.
	AggregateCacheTTL time.Duration

	// JWTSecret verifies the HS256 bearer tokens that carry the acting user. Required.
	JWTSecret string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first value that is set but invalid.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("MONGO_DATABASE", "placebook")
	v.SetDefault("AGGREGATE_CACHE_TTL", "5m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)

	cfg := Config{
		Port:              v.GetString("PORT"),
		Env:               v.GetString("ENV"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		AutoMigrate:       v.GetBool("AUTO_MIGRATE"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDatabase:     v.GetString("MONGO_DATABASE"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		AggregateCacheTTL: v.GetDuration("AGGREGATE_CACHE_TTL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		CORSOrigins:       splitCSV(v.GetString("CORS_ORIGINS")),
		MaxBodyBytes:      v.GetInt64("MAX_BODY_BYTES"),
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER %q is not one of postgres, mongo, memory", cfg.StoreDriver)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	if !slices.Contains([]string{"local", "dev", "test", "prod"}, cfg.Env) {
		return Config{}, fmt.Errorf("ENV %q is not one of local, dev, test, prod", cfg.Env)
	}
	if cfg.AggregateCacheTTL <= 0 {
		return Config{}, fmt.Errorf("AGGREGATE_CACHE_TTL must be a positive duration")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	return cfg, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
