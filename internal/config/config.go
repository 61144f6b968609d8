package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Secrets   SecretsConfig
	Scheduler SchedulerConfig
	CORS      CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// AuthConfig holds bearer-token configuration.
// Secret signs HS256 tokens; tokens older than TTL are rejected.
type AuthConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// SecretsConfig holds the fernet key used to encrypt investor passwords at rest.
type SecretsConfig struct {
	FernetKey string
}

// SchedulerConfig holds the cron spec for the nightly recalculation refresh.
type SchedulerConfig struct {
	RecalcCron string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	ttlHours, err := strconv.Atoi(getEnv("AUTH_TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL_HOURS: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/mt5_allocation.db"),
		},
		Auth: AuthConfig{
			Secret: getEnv("AUTH_SECRET", ""),
			Issuer: getEnv("AUTH_ISSUER", "fidus-backoffice"),
			TTL:    time.Duration(ttlHours) * time.Hour,
		},
		Secrets: SecretsConfig{
			FernetKey: getEnv("FERNET_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			// Default: refresh reports at 02:00 every night.
			RecalcCron: getEnv("RECALC_CRON", "0 2 * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
	}

	if config.Auth.Secret == "" {
		return nil, fmt.Errorf("AUTH_SECRET must be set")
	}
	if config.Secrets.FernetKey == "" {
		return nil, fmt.Errorf("FERNET_KEY must be set")
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
