// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "dev-secret-change-me"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// StoreBackend selects the post and user repositories: "postgres" or "memory".
	StoreBackend string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Bearer token signing
	JWTSecret string

	// Thumbnail storage: "disk" or "s3"
	MediaBackend string
	UploadsDir   string

	// S3-compatible object storage, used when MediaBackend is "s3"
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// CORSAllowedOrigins lists browser origins allowed to call the API.
	CORSAllowedOrigins []string

	// EditOwnerOnly restricts post edits to the post's creator.
	EditOwnerOnly bool

	// ReconcileInterval is the period of the counter repair sweep. Zero
	// disables it.
	ReconcileInterval time.Duration

	// AdminIDs lists the users allowed to call maintenance endpoints. Empty
	// means nobody may.
	AdminIDs []uuid.UUID
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Values from a .env file in the working
// directory are applied first without overriding the real environment.
// Returns an error if a value is malformed or if critical values are left
// at their defaults in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "blogpress"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "blogpress"),

		StoreBackend: strings.ToLower(envOrDefault("STORE_BACKEND", "postgres")),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret: envOrDefault("JWT_SECRET", defaultJWTSecret),

		MediaBackend: strings.ToLower(envOrDefault("MEDIA_BACKEND", "disk")),
		UploadsDir:   envOrDefault("UPLOADS_DIR", "uploads"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "blogpress-uploads"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		CORSAllowedOrigins: splitList(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	var err error
	if cfg.EditOwnerOnly, err = envBool("POST_EDIT_OWNER_ONLY", false); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = envDuration("RECONCILE_INTERVAL", 0); err != nil {
		return nil, err
	}
	if cfg.AdminIDs, err = envUUIDs("ADMIN_USER_IDS"); err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be postgres or memory, got %q", cfg.StoreBackend)
	}
	switch cfg.MediaBackend {
	case "disk", "s3":
	default:
		return nil, fmt.Errorf("MEDIA_BACKEND must be disk or s3, got %q", cfg.MediaBackend)
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.StoreBackend == "memory" {
			slog.Warn("in-memory store in production loses all data on restart")
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

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// envUUIDs parses a comma-separated list of user IDs.
func envUUIDs(key string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range splitList(os.Getenv(key)) {
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
