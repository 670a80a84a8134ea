package config

import (
	"os"
	"strconv"
	"time"

	"github.com/mercastudio/storefront-admin/internal/shared/infrastructure/database"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Database     database.PostgresConfig
	Redis        database.RedisConfig
	JWT          JWTConfig
	Notification NotificationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// NotificationConfig holds delivery engine tuning knobs
type NotificationConfig struct {
	PushEnabled   bool
	PollInterval  time.Duration
	ReappearDelay time.Duration
	TrackCapacity int
	VisibleLimit  int
}

// Load reads configuration from environment variables
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
		},
		Database: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-dev-secret"),
			Expiry: parseDuration(getEnv("JWT_EXPIRATION", "24h"), 24*time.Hour),
		},
		Notification: NotificationConfig{
			PushEnabled:   getEnv("NOTIFY_PUSH_ENABLED", "true") == "true",
			PollInterval:  parseDuration(getEnv("NOTIFY_POLL_INTERVAL", "5s"), 5*time.Second),
			ReappearDelay: parseDuration(getEnv("NOTIFY_REAPPEAR_DELAY", "30s"), 30*time.Second),
			TrackCapacity: parseInt(getEnv("NOTIFY_TRACK_CAPACITY", "20"), 20),
			VisibleLimit:  parseInt(getEnv("NOTIFY_VISIBLE_LIMIT", "5"), 5),
		},
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration string or returns a default value
func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// parseInt parses an integer string or returns a default value
func parseInt(value string, defaultValue int) int {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}
