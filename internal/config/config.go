package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Catalog     ServiceConfig
	Commerce    ServiceConfig
	Checkout    CheckoutConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServiceConfig points at an external collaborator (catalog or commerce API).
type ServiceConfig struct {
	BaseURL string
	Token   string
}

type CheckoutConfig struct {
	// QuoteDebounce is how long fee recomputation waits for the shopper to
	// stop editing before calling the commerce service.
	QuoteDebounce  time.Duration
	RequestTimeout time.Duration
	// SessionIdleTTL is how long per-session quote and submission records
	// survive without activity before the janitor sweeps them.
	SessionIdleTTL time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("QUOTE_DEBOUNCE_MS", "400")
	viper.SetDefault("REQUEST_TIMEOUT_MS", "15000")
	viper.SetDefault("SESSION_IDLE_TTL_MIN", "360")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Catalog: ServiceConfig{
			BaseURL: getEnvOrViper("CATALOG_BASE_URL", ""),
			Token:   getEnvOrViper("CATALOG_TOKEN", ""),
		},
		Commerce: ServiceConfig{
			BaseURL: getEnvOrViper("COMMERCE_BASE_URL", ""),
			Token:   getEnvOrViper("COMMERCE_TOKEN", ""),
		},
		Checkout: CheckoutConfig{
			QuoteDebounce:  time.Duration(viper.GetInt("QUOTE_DEBOUNCE_MS")) * time.Millisecond,
			RequestTimeout: time.Duration(viper.GetInt("REQUEST_TIMEOUT_MS")) * time.Millisecond,
			SessionIdleTTL: time.Duration(viper.GetInt("SESSION_IDLE_TTL_MIN")) * time.Minute,
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Catalog.BaseURL == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL is required")
	}
	if cfg.Commerce.BaseURL == "" {
		return nil, fmt.Errorf("COMMERCE_BASE_URL is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
