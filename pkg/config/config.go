package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends understood by the server and the CLI.
const (
	StoreBackendMemory   = "memory"
	StoreBackendSQLite   = "sqlite"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	OTEL        OTELConfig
	Log         LogConfig
	Rating      RatingConfig
	StoreReview StoreReviewConfig
	Events      EventsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// StoreConfig selects the key-value backend
type StoreConfig struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"STORE_SQLITE_PATH" envDefault:"apprating.db"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_NAME" envDefault:"apprating"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"apprating"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	Endpoint       string `env:"OTEL_ENDPOINT"`
	Enabled        bool   `env:"OTEL_ENABLED" envDefault:"false"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Env   string `env:"APP_ENV" envDefault:"development"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// RatingConfig holds the rating prompt defaults
type RatingConfig struct {
	StorageKey                  string `env:"RATING_STORAGE_KEY" envDefault:"@app_rating"`
	ActionsBeforeRating         int    `env:"RATING_ACTIONS_BEFORE_RATING" envDefault:"3"`
	DaysBetweenRatings          int    `env:"RATING_DAYS_BETWEEN_RATINGS" envDefault:"90"`
	MinimumRatingForStoreReview int    `env:"RATING_MIN_FOR_STORE_REVIEW" envDefault:"4"`
}

// StoreReviewConfig configures the platform store-review trigger
type StoreReviewConfig struct {
	Provider   string        `env:"STORE_REVIEW_PROVIDER" envDefault:"mock"`
	WebhookURL string        `env:"STORE_REVIEW_WEBHOOK_URL"`
	Timeout    time.Duration `env:"STORE_REVIEW_TIMEOUT" envDefault:"5s"`
}

// EventsConfig configures cross-instance review events
type EventsConfig struct {
	Enabled bool   `env:"EVENTS_ENABLED" envDefault:"false"`
	Channel string `env:"EVENTS_CHANNEL" envDefault:"reviews:updates"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendRedis, StoreBackendPostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Rating.ActionsBeforeRating < 0 {
		return fmt.Errorf("RATING_ACTIONS_BEFORE_RATING must not be negative")
	}
	if c.Rating.DaysBetweenRatings < 0 {
		return fmt.Errorf("RATING_DAYS_BETWEEN_RATINGS must not be negative")
	}
	if c.Rating.MinimumRatingForStoreReview < 1 || c.Rating.MinimumRatingForStoreReview > 5 {
		return fmt.Errorf("RATING_MIN_FOR_STORE_REVIEW must be between 1 and 5")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
