package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// SeedFile points to an optional YAML file with initial
	// categories/questions/tests loaded on startup
	SeedFile string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr string // listen address (host:port)
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return &Config{
		HTTP: HTTPConfig{
			Addr: getenv("HTTP_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			URL: getenv("DATABASE_URL", "iqadmin.sqlite"),
		},
		Redis: RedisConfig{
			Address: getenv("REDIS_ADDRESS", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		SeedFile: os.Getenv("SEED_FILE"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
