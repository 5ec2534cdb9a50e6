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

// Supported price providers
const (
	ProviderYahoo    = "yahoo"
	ProviderAlpaca   = "alpaca"
	ProviderPostgres = "postgres"
	ProviderCSV      = "csv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data
	Provider string
	Fetch    FetchConfig
	Yahoo    YahooConfig
	Alpaca   AlpacaConfig
	CSV      CSVConfig

	// Database (postgres provider only)
	Database DatabaseConfig

	// Redis (shared provider rate limit)
	Redis RedisConfig

	// Strategy / universe
	StrategyFile string
	UniverseFile string
	ScanSchedule string

	// Logging
	LogLevel  string
	LogFormat string
}

// FetchConfig holds the batching/retry policy for price downloads
type FetchConfig struct {
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	BatchDelay time.Duration
	Timeout    time.Duration
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string
	RateLimit int // requests per second
}

// AlpacaConfig holds Alpaca market data API configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	DataURL   string
	Feed      string
}

// CSVConfig holds the offline price file location
type CSVConfig struct {
	PricesPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Market data
		Provider: strings.ToLower(getEnv("PROVIDER", ProviderYahoo)),
		Fetch: FetchConfig{
			BatchSize:  getEnvAsInt("FETCH_BATCH_SIZE", 5),
			MaxRetries: getEnvAsInt("FETCH_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("FETCH_RETRY_DELAY", "2s"),
			BatchDelay: getEnvAsDuration("FETCH_BATCH_DELAY", "1s"),
			Timeout:    getEnvAsDuration("FETCH_TIMEOUT", "30s"),
		},
		Yahoo: YahooConfig{
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RateLimit: getEnvAsInt("YAHOO_RATE_LIMIT", 2),
		},
		Alpaca: AlpacaConfig{
			APIKey:    getEnv("ALPACA_API_KEY", ""),
			APISecret: getEnv("ALPACA_API_SECRET", ""),
			DataURL:   getEnv("ALPACA_DATA_URL", ""),
			Feed:      getEnv("ALPACA_FEED", "iex"),
		},
		CSV: CSVConfig{
			PricesPath: getEnv("PRICES_CSV_PATH", ""),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),
		UniverseFile: getEnv("UNIVERSE_FILE", ""),
		ScanSchedule: getEnv("SCAN_SCHEDULE", "0 30 16 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Provider {
	case ProviderYahoo:
		if c.Yahoo.BaseURL == "" {
			return fmt.Errorf("YAHOO_BASE_URL is required")
		}
	case ProviderAlpaca:
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return fmt.Errorf("ALPACA_API_KEY and ALPACA_API_SECRET are required for provider %q", c.Provider)
		}
	case ProviderPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for provider %q", c.Provider)
		}
	case ProviderCSV:
		if c.CSV.PricesPath == "" {
			return fmt.Errorf("PRICES_CSV_PATH is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("PROVIDER must be one of: yahoo, alpaca, postgres, csv (got %q)", c.Provider)
	}

	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must not be negative")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
