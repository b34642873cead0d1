package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AMeenalosini/StressTesting/domain"
)

// Config holds environment-driven settings for the stress testing API.
type Config struct {
	Port string

	// Bank profile, optionally read from a YAML file
	ProfilePath string
	Profile     domain.BankProfile

	// FRED unemployment source
	FREDAPIKey              string
	FREDBaseURL             string
	FREDSeriesID            string
	FREDTimeout             time.Duration
	UnemploymentCacheTTL    time.Duration
	UnemploymentRefreshCron string

	// Optional LLM summaries
	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string

	// Storage
	RedisAddr  string
	SQLitePath string

	// HTTP
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowedOrigin string

	// Logging
	LogLevel  string
	LogFormat string // "json" or "console"
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	fredTimeout, err := getEnvDuration("FRED_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvDuration("UNEMPLOYMENT_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	rateLimitRequests, err := getEnvInt("RATE_LIMIT_REQUESTS", 60)
	if err != nil {
		return nil, err
	}
	rateLimitWindow, err := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "4000"),
		ProfilePath:             os.Getenv("BANK_PROFILE_PATH"),
		Profile:                 domain.DefaultBankProfile(),
		FREDAPIKey:              os.Getenv("FRED_API_KEY"),
		FREDBaseURL:             getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred/series/observations"),
		FREDSeriesID:            getEnv("FRED_SERIES_ID", "UNRATE"),
		FREDTimeout:             fredTimeout,
		UnemploymentCacheTTL:    cacheTTL,
		UnemploymentRefreshCron: os.Getenv("UNEMPLOYMENT_REFRESH_CRON"),
		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIURL:            getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		SQLitePath:              os.Getenv("SQLITE_PATH"),
		RateLimitRequests:       rateLimitRequests,
		RateLimitWindow:         rateLimitWindow,
		CORSAllowedOrigin:       getEnv("CORS_ALLOWED_ORIGIN", "*"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}

	if cfg.ProfilePath != "" {
		profile, err := LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		cfg.Profile = profile
	}

	return cfg, nil
}

// LoadProfile reads a bank profile from YAML. Fields missing from the file
// keep the default profile's values.
func LoadProfile(path string) (domain.BankProfile, error) {
	profile := domain.DefaultBankProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.BankProfile{}, fmt.Errorf("read bank profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return domain.BankProfile{}, fmt.Errorf("parse bank profile: %w", err)
	}
	return profile, nil
}

// Validate checks the settings that would make the service unusable.
func (c *Config) Validate() error {
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt and getEnvDuration return def when key is unset and an error
// when it is set to something unparsable.
func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return i, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (want e.g. 10s, 1m)", key, v)
	}
	return d, nil
}
