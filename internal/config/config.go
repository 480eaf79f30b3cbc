// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot backends selectable through STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendValkey   = "valkey"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string // "debug", "info", "warn", "error"

	// Entity snapshot persistence
	StoreBackend string
	StoreKey     string
	SQLitePath   string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// S3-compatible object storage
	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3BucketPublic  string
	S3BucketPrivate string
	S3PublicURL     string

	// Bcrypt hash of the API bearer token; empty disables auth.
	APITokenHash string

	// Requests per minute allowed per client IP on the API; 0 disables.
	RateLimit int

	// Lifetime of cached exports in Valkey; 0 disables the export cache.
	ExportCacheTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(envOrDefault("STORE_BACKEND", BackendSQLite)),
		StoreKey:     envOrDefault("STORE_KEY", "entity-map"),
		SQLitePath:   envOrDefault("SQLITE_PATH", "promptforge.db"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "promptforge"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "promptforge"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic:  envOrDefault("S3_BUCKET_PUBLIC", "promptforge-public"),
		S3BucketPrivate: envOrDefault("S3_BUCKET_PRIVATE", "promptforge-private"),
		S3PublicURL:     os.Getenv("S3_PUBLIC_URL"),

		APITokenHash: os.Getenv("API_TOKEN_HASH"),
	}

	db, err := strconv.Atoi(envOrDefault("VALKEY_DB", "0"))
	if err != nil || db < 0 {
		return nil, fmt.Errorf("VALKEY_DB must be a non-negative integer, got %q", os.Getenv("VALKEY_DB"))
	}
	cfg.ValkeyDB = db

	limit, err := strconv.Atoi(envOrDefault("RATE_LIMIT", "300"))
	if err != nil || limit < 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be a non-negative integer, got %q", os.Getenv("RATE_LIMIT"))
	}
	cfg.RateLimit = limit

	ttl, err := time.ParseDuration(envOrDefault("EXPORT_CACHE_TTL", "10m"))
	if err != nil || ttl < 0 {
		return nil, fmt.Errorf("EXPORT_CACHE_TTL must be a non-negative duration, got %q", os.Getenv("EXPORT_CACHE_TTL"))
	}
	cfg.ExportCacheTTL = ttl

	switch cfg.StoreBackend {
	case BackendSQLite, BackendPostgres, BackendValkey, BackendS3, BackendMemory:
	default:
		return nil, fmt.Errorf("STORE_BACKEND %q is not one of sqlite, postgres, valkey, s3, memory", cfg.StoreBackend)
	}

	if cfg.StoreBackend == BackendS3 && !cfg.S3Configured() {
		return nil, fmt.Errorf("STORE_BACKEND=s3 requires S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY")
	}

	if cfg.Env == "production" {
		if cfg.StoreBackend == BackendPostgres && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.APITokenHash == "" {
			return nil, fmt.Errorf("API_TOKEN_HASH must be set in production")
		}
		if cfg.StoreBackend == BackendMemory {
			return nil, fmt.Errorf("STORE_BACKEND=memory is not allowed in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// S3Configured reports whether object storage credentials are present.
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
