// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for the databases (always absolute)
	Port            int
	LogLevel        string
	DevMode         bool
	StartingBalance decimal.Decimal // Cash balance granted to new accounts
	SessionTTL      time.Duration   // Lifetime of a login session
	QuoteTTL        time.Duration   // How long a cached quote stays fresh
	QuoteTimeout    time.Duration   // HTTP timeout for the quote provider
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. SIM_DATA_DIR environment variable
	// 2. ./data under the working directory
	// Always resolved to an absolute path, created if missing.
	dataDir := getEnv("SIM_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	startingBalance, err := decimal.NewFromString(getEnv("SIM_STARTING_BALANCE", "10000.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_STARTING_BALANCE: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("SIM_PORT", 8000),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		StartingBalance: startingBalance,
		SessionTTL:      time.Duration(getEnvAsInt("SIM_SESSION_TTL_HOURS", 24)) * time.Hour,
		QuoteTTL:        time.Duration(getEnvAsInt("SIM_QUOTE_TTL_SECONDS", 60)) * time.Second,
		QuoteTimeout:    time.Duration(getEnvAsInt("SIM_QUOTE_TIMEOUT_SECONDS", 10)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.StartingBalance.IsNegative() {
		return fmt.Errorf("starting balance must not be negative: %s", c.StartingBalance)
	}
	if c.QuoteTTL <= 0 {
		return fmt.Errorf("quote TTL must be positive: %s", c.QuoteTTL)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
