// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for databases and chart artifacts (always absolute)
	Port            int
	LogLevel        string
	DevMode         bool
	BaseCurrency    string // Currency trades are denominated in (USD)
	QuoteCurrency   string // Companion display currency (AUD)
	BenchmarkSymbol string // Index the portfolio chart is compared against
	Backup          *BackupConfig
}

// BackupConfig holds ledger snapshot backup settings for S3-compatible storage.
// Backups are disabled unless an endpoint and bucket are configured.
type BackupConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether backups are configured
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Endpoint != "" && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("WHEELTRACK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		BaseCurrency:    getEnv("BASE_CURRENCY", "USD"),
		QuoteCurrency:   getEnv("QUOTE_CURRENCY", "AUD"),
		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "^GSPC"),
		Backup: &BackupConfig{
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.BaseCurrency == c.QuoteCurrency {
		return fmt.Errorf("base and quote currencies must differ (both %s)", c.BaseCurrency)
	}
	if c.BenchmarkSymbol == "" {
		return fmt.Errorf("benchmark symbol must not be empty")
	}
	return nil
}

// ChartsDir returns the directory chart artifacts are written to
func (c *Config) ChartsDir() string {
	return filepath.Join(c.DataDir, "charts")
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
