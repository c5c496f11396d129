// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in MARKET_PROVIDERS.
const (
	ProviderFinnhub      = "finnhub"
	ProviderAlphaVantage = "alphavantage"
	ProviderYahoo        = "yahoo"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the database and backups (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	FinnhubAPIKey          string
	AlphaVantageAPIKey     string
	AlphaVantageDailyLimit int
	MarketProviders        []string // Priority order

	QuoteTimeout      time.Duration
	OverviewTimeout   time.Duration
	DividendsTimeout  time.Duration
	SearchTimeout     time.Duration
	HistoryTimeout    time.Duration
	SearchEnrichLimit int

	ProjectionSchedule   string
	PriceRefreshSchedule string
	BackupSchedule       string
	MaintenanceSchedule  string

	Backup BackupConfig
}

// BackupConfig holds S3-compatible backup settings. Backups are disabled without a bucket.
type BackupConfig struct {
	Bucket          string
	Endpoint        string // Empty for AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	RetentionDays   int // 0 keeps every backup
}

// Enabled reports whether a backup bucket is configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("YIELDFOLIO_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		FinnhubAPIKey:          getEnv("FINNHUB_API_KEY", ""),
		AlphaVantageAPIKey:     getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageDailyLimit: getEnvAsInt("ALPHA_VANTAGE_DAILY_LIMIT", 25),
		MarketProviders:        getEnvAsList("MARKET_PROVIDERS", []string{ProviderFinnhub, ProviderAlphaVantage, ProviderYahoo}),

		QuoteTimeout:      getEnvAsDuration("QUOTE_TIMEOUT", 5*time.Second),
		OverviewTimeout:   getEnvAsDuration("OVERVIEW_TIMEOUT", 8*time.Second),
		DividendsTimeout:  getEnvAsDuration("DIVIDENDS_TIMEOUT", 8*time.Second),
		SearchTimeout:     getEnvAsDuration("SEARCH_TIMEOUT", 5*time.Second),
		HistoryTimeout:    getEnvAsDuration("HISTORY_TIMEOUT", 10*time.Second),
		SearchEnrichLimit: getEnvAsInt("SEARCH_ENRICH_LIMIT", 5),

		ProjectionSchedule:   getEnv("PROJECTION_SCHEDULE", "0 0 3 * * *"),
		PriceRefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", "0 */30 * * * *"),
		BackupSchedule:       getEnv("BACKUP_SCHEDULE", "0 0 4 * * *"),
		MaintenanceSchedule:  getEnv("MAINTENANCE_SCHEDULE", "0 0 2 * * *"),

		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("BACKUP_S3_PREFIX", "yieldfolio"),
			RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath returns the SQLite file location inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "yieldfolio.db")
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if len(c.MarketProviders) == 0 {
		return fmt.Errorf("MARKET_PROVIDERS must name at least one provider")
	}
	seen := make(map[string]bool, len(c.MarketProviders))
	for _, p := range c.MarketProviders {
		switch p {
		case ProviderFinnhub, ProviderAlphaVantage, ProviderYahoo:
		default:
			return fmt.Errorf("unknown market provider %q", p)
		}
		if seen[p] {
			return fmt.Errorf("market provider %q listed twice", p)
		}
		seen[p] = true
	}

	timeouts := map[string]time.Duration{
		"QUOTE_TIMEOUT":     c.QuoteTimeout,
		"OVERVIEW_TIMEOUT":  c.OverviewTimeout,
		"DIVIDENDS_TIMEOUT": c.DividendsTimeout,
		"SEARCH_TIMEOUT":    c.SearchTimeout,
		"HISTORY_TIMEOUT":   c.HistoryTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}

	if c.SearchEnrichLimit < 0 {
		return fmt.Errorf("SEARCH_ENRICH_LIMIT must not be negative")
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
