package config

import (
	"testing"
	"time"

	"github.com/account-explorer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8787", cfg.Server.Port)
	assert.Equal(t, "https://rest-testnet.onflow.org", cfg.Flow.AccessNodeURL)
	assert.Equal(t, types.SourceAPI, cfg.Explorer.Source)
	assert.Equal(t, 3.0, cfg.Explorer.RequestsPerSecond)
	assert.Equal(t, 30*time.Second, cfg.Explorer.BrowserTimeout)
	assert.Equal(t, 2*time.Second, cfg.Explorer.TabSettleDelay)
	assert.Equal(t, 60*time.Second, cfg.Poll.Interval)
	assert.Empty(t, cfg.Poll.Accounts)
	assert.Equal(t, types.StoreRedis, cfg.Store.Backend)
	assert.Equal(t, 500, cfg.Store.RetentionCap)
	assert.Equal(t, "book_of_truth", cfg.Backend.MongoDatabase)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9900")
	t.Setenv("SCRAPE_SOURCE", "headless")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("SNAPSHOT_STORE", "memory")
	t.Setenv("SNAPSHOT_RETENTION_CAP", "50")
	t.Setenv("WATCH_ACCOUNTS", "0xAAA, 0xBBB,,0xCCC")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9900", cfg.Server.Port)
	assert.Equal(t, types.SourceHeadless, cfg.Explorer.Source)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, types.StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 50, cfg.Store.RetentionCap)
	assert.Equal(t, []string{"0xAAA", "0xBBB", "0xCCC"}, cfg.Poll.Accounts)
}

func TestLoadConfig_ServiceSourceRequiresURL(t *testing.T) {
	t.Setenv("SCRAPE_SOURCE", "service")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCRAPE_SERVICE_URL")

	t.Setenv("SCRAPE_SERVICE_URL", "http://localhost:7000")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, types.SourceService, cfg.Explorer.Source)
}

func TestLoadConfig_InvalidRetentionCap(t *testing.T) {
	t.Setenv("SNAPSHOT_RETENTION_CAP", "-1")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention cap")
}

func TestParseScrapeSource(t *testing.T) {
	assert.Equal(t, types.SourceAPI, parseScrapeSource(""))
	assert.Equal(t, types.SourceAPI, parseScrapeSource("api"))
	assert.Equal(t, types.SourceHeadless, parseScrapeSource(" HEADLESS "))
	assert.Equal(t, types.SourceService, parseScrapeSource("service"))
	assert.Equal(t, types.SourceAPI, parseScrapeSource("garbage"))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a"}, splitList("a"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , b "))
	assert.Empty(t, splitList(" , ,"))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "not-a-number")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DURATION", "90s")

	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("TEST_BAD_INT", 1), "unparseable values fall back to the default")
	assert.Equal(t, 7, getEnvAsInt("TEST_UNSET", 7))
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TEST_DURATION", time.Second))
}
