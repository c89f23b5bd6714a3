package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds ambient application configuration — the server, database,
// and data-directory bootstrap. Engine-specific tunables (factor
// weights, optimizer constants) live in EngineConfig.
type Config struct {
	// Server
	Port    int
	DevMode bool

	// Database
	DatabasePath string

	// Data directories (tiered DataCache)
	HistoricalDir  string
	ConsolidatedDir string

	// Logging
	LogLevel string

	Engine EngineConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("GO_PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/portfolio.db"),
		HistoricalDir:   getEnv("HISTORICAL_DIR", "./data/historical/prices"),
		ConsolidatedDir: getEnv("CONSOLIDATED_DIR", "./data/cache"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Engine:          LoadEngineConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.HistoricalDir == "" || c.ConsolidatedDir == "" {
		return fmt.Errorf("HISTORICAL_DIR and CONSOLIDATED_DIR are required")
	}
	return c.Engine.Validate()
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
