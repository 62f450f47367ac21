package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Rebalancer/models"
)

var configKeys = []string{
	"CONFIG_FILE", "THEGRAPH_API_KEY", "SUBGRAPH_ID", "POOL_ID", "THEGRAPH_GATEWAY_URL",
	"VOLATILITY_THRESHOLD", "NARROW_RANGE_PCT", "WIDE_RANGE_PCT", "VOLATILITY_LOOKBACK_DAYS",
	"METRICS_LENIENT", "REANCHOR_ON_REBALANCE", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"POLL_INTERVAL", "POLL_SCHEDULE", "LOG_LEVEL", "LOG_PRETTY", "REQUEST_TIMEOUT",
	"REQUESTS_PER_SEC", "MAX_RETRIES", "MAX_RETRY_TIMEOUT", "METRICS_ADDR",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
}

// clearEnv blanks every key so values from the host cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, models.DefaultAllocationConfig(), cfg.Allocation)
	assert.Equal(t, 7, cfg.LookbackDays)
	assert.Equal(t, "5min", cfg.PollInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.RequestTimeout)
	assert.False(t, cfg.ReanchorOnRebalance)
	assert.False(t, cfg.DatabaseEnabled())

	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	assert.Equal(t, "@every 5m", schedule)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("THEGRAPH_API_KEY", "key")
	t.Setenv("SUBGRAPH_ID", "sub")
	t.Setenv("POOL_ID", "0xpool")
	t.Setenv("VOLATILITY_THRESHOLD", "0.02")
	t.Setenv("NARROW_RANGE_PCT", "0.005")
	t.Setenv("WIDE_RANGE_PCT", "0.01")
	t.Setenv("REANCHOR_ON_REBALANCE", "yes")
	t.Setenv("POLL_SCHEDULE", "*/10 * * * *")
	t.Setenv("REQUEST_TIMEOUT", "oops")
	t.Setenv("DB_HOST", "localhost")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.TheGraphAPIKey)
	assert.Equal(t, 0.02, cfg.Allocation.VolatilityThreshold)
	assert.Equal(t, 0.005, cfg.Allocation.NarrowRangePct)
	assert.Equal(t, 0.01, cfg.Allocation.WideRangePct)
	assert.True(t, cfg.ReanchorOnRebalance)
	assert.Equal(t, 30, cfg.RequestTimeout, "bad integers fall back to the default")
	assert.True(t, cfg.DatabaseEnabled())

	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	assert.Equal(t, "*/10 * * * *", schedule)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rebalancer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
thegraph_api_key: file-key
subgraph_id: file-sub
pool_id: "0xFILE"
allocation:
  volatility_threshold: 0.03
  narrow_range_pct: 0.001
  wide_range_pct: 0.004
poll_interval: 15min
telegram_chat_id: "-100"
database:
  host: db.internal
  dbname: rebalancer
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("POOL_ID", "0xENV")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.TheGraphAPIKey)
	assert.Equal(t, "0xENV", cfg.PoolID)
	assert.Equal(t, 0.03, cfg.Allocation.VolatilityThreshold)
	assert.Equal(t, 0.004, cfg.Allocation.WideRangePct)
	assert.Equal(t, "15min", cfg.PollInterval)
	assert.Equal(t, "-100", cfg.TelegramChatID)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port, "file leaves unset fields at their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.TheGraphAPIKey = "key"
	valid.SubgraphID = "sub"
	valid.PoolID = "0xpool"
	require.NoError(t, valid.Validate())

	for _, schedule := range []string{"*/10 * * * *", "@every 90s", "@daily"} {
		withSchedule := valid
		withSchedule.PollSchedule = schedule
		assert.NoError(t, withSchedule.Validate(), schedule)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing pool", mutate: func(c *Config) { c.PoolID = "" }},
		{name: "missing api key", mutate: func(c *Config) { c.TheGraphAPIKey = "" }},
		{name: "inverted ranges", mutate: func(c *Config) { c.Allocation.NarrowRangePct = 0.01 }},
		{name: "telegram without chat", mutate: func(c *Config) { c.TelegramBotToken = "token" }},
		{name: "bad interval", mutate: func(c *Config) { c.PollInterval = "2min" }},
		{name: "unparsable schedule", mutate: func(c *Config) { c.PollSchedule = "every five minutes please" }},
		{name: "six field schedule", mutate: func(c *Config) { c.PollSchedule = "0 */5 * * * *" }},
		{name: "short lookback", mutate: func(c *Config) { c.LookbackDays = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}
