package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Alias1177/Rebalancer/models"
)

// Config holds all application configuration
type Config struct {
	TheGraphAPIKey string `yaml:"thegraph_api_key"`
	SubgraphID     string `yaml:"subgraph_id"`
	PoolID         string `yaml:"pool_id"`
	GatewayURL     string `yaml:"gateway_url"`

	Allocation          models.AllocationConfig `yaml:"allocation"`
	LookbackDays        int                     `yaml:"volatility_lookback_days"`
	LenientMetrics      bool                    `yaml:"metrics_lenient"`
	ReanchorOnRebalance bool                    `yaml:"reanchor_on_rebalance"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`

	PollInterval string `yaml:"poll_interval"`
	PollSchedule string `yaml:"poll_schedule"`

	LogLevel        string `yaml:"log_level"`
	LogPretty       bool   `yaml:"log_pretty"`
	RequestTimeout  int    `yaml:"request_timeout"` // seconds
	RequestsPerSec  int    `yaml:"requests_per_sec"`
	MaxRetries      int    `yaml:"max_retries"`
	MaxRetryTimeout int    `yaml:"max_retry_timeout"` // seconds
	MetricsAddr     string `yaml:"metrics_addr"`

	Database Database `yaml:"database"`
}

// Database holds PostgreSQL settings for the decision journal
type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Allocation:      models.DefaultAllocationConfig(),
		LookbackDays:    7,
		PollInterval:    "5min",
		LogLevel:        "info",
		LogPretty:       true,
		RequestTimeout:  30,
		RequestsPerSec:  5,
		MaxRetries:      3,
		MaxRetryTimeout: 30,
		Database: Database{
			Port:    "5432",
			SSLMode: "disable",
		},
	}
}

// Load initializes configuration: defaults, then the optional YAML file named
// by CONFIG_FILE, then environment variables (a .env file is read first).
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.TheGraphAPIKey = getEnvWithDefault("THEGRAPH_API_KEY", cfg.TheGraphAPIKey)
	cfg.SubgraphID = getEnvWithDefault("SUBGRAPH_ID", cfg.SubgraphID)
	cfg.PoolID = getEnvWithDefault("POOL_ID", cfg.PoolID)
	cfg.GatewayURL = getEnvWithDefault("THEGRAPH_GATEWAY_URL", cfg.GatewayURL)

	cfg.Allocation.VolatilityThreshold = getEnvFloatWithDefault("VOLATILITY_THRESHOLD", cfg.Allocation.VolatilityThreshold)
	cfg.Allocation.NarrowRangePct = getEnvFloatWithDefault("NARROW_RANGE_PCT", cfg.Allocation.NarrowRangePct)
	cfg.Allocation.WideRangePct = getEnvFloatWithDefault("WIDE_RANGE_PCT", cfg.Allocation.WideRangePct)
	cfg.LookbackDays = getEnvIntWithDefault("VOLATILITY_LOOKBACK_DAYS", cfg.LookbackDays)
	cfg.LenientMetrics = getEnvBoolWithDefault("METRICS_LENIENT", cfg.LenientMetrics)
	cfg.ReanchorOnRebalance = getEnvBoolWithDefault("REANCHOR_ON_REBALANCE", cfg.ReanchorOnRebalance)

	cfg.TelegramBotToken = getEnvWithDefault("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.TelegramChatID = getEnvWithDefault("TELEGRAM_CHAT_ID", cfg.TelegramChatID)

	cfg.PollInterval = getEnvWithDefault("POLL_INTERVAL", cfg.PollInterval)
	cfg.PollSchedule = getEnvWithDefault("POLL_SCHEDULE", cfg.PollSchedule)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogPretty = getEnvBoolWithDefault("LOG_PRETTY", cfg.LogPretty)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", cfg.RequestsPerSec)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", cfg.MaxRetries)
	cfg.MaxRetryTimeout = getEnvIntWithDefault("MAX_RETRY_TIMEOUT", cfg.MaxRetryTimeout)
	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", cfg.MetricsAddr)

	cfg.Database.Host = getEnvWithDefault("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvWithDefault("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnvWithDefault("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnvWithDefault("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnvWithDefault("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnvWithDefault("DB_SSLMODE", cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks what a monitoring run needs
func (c *Config) Validate() error {
	var errs []error
	if c.TheGraphAPIKey == "" {
		errs = append(errs, errors.New("THEGRAPH_API_KEY is required"))
	}
	if c.SubgraphID == "" {
		errs = append(errs, errors.New("SUBGRAPH_ID is required"))
	}
	if c.PoolID == "" {
		errs = append(errs, errors.New("POOL_ID is required"))
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == "" {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	if c.LookbackDays < 2 {
		errs = append(errs, fmt.Errorf("VOLATILITY_LOOKBACK_DAYS must be at least 2, got %d", c.LookbackDays))
	}
	if err := c.Allocation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if schedule, err := c.Schedule(); err != nil {
		errs = append(errs, err)
	} else if _, err := cron.ParseStandard(schedule); err != nil {
		errs = append(errs, fmt.Errorf("POLL_SCHEDULE %q: %w", schedule, err))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", models.ErrInvalidInput, errors.Join(errs...))
}

// Schedule returns the cron spec for polling; POLL_SCHEDULE wins over POLL_INTERVAL
func (c *Config) Schedule() (string, error) {
	if c.PollSchedule != "" {
		return c.PollSchedule, nil
	}
	return models.ScheduleForInterval(c.PollInterval)
}

// DatabaseEnabled reports whether the decision journal is configured
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// RequestTimeoutDuration returns RequestTimeout as a duration
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// MaxRetryTimeoutDuration returns MaxRetryTimeout as a duration
func (c *Config) MaxRetryTimeoutDuration() time.Duration {
	return time.Duration(c.MaxRetryTimeout) * time.Second
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric environment value")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		value = strings.ToLower(value)
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
