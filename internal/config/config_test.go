package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml or .env is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "leadtech.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "https://serpapi.com", cfg.SerpAPI.BaseURL)
	assert.Equal(t, 30, cfg.SerpAPI.TimeoutSecs)
	assert.Equal(t, 5000, cfg.SerpAPI.Plan.SearchesIncluded)
	assert.InDelta(t, 75.0, cfg.SerpAPI.Plan.PlanMonthly, 0.001)
	assert.Equal(t, 15, cfg.Cache.FreshMinutes)
	assert.Equal(t, 15, cfg.Cache.PayloadMaxAgeMinutes)
	assert.InDelta(t, 25.7617, cfg.Geo.CenterLat, 0.0001)
	assert.InDelta(t, -80.1918, cfg.Geo.CenterLng, 0.0001)
	assert.InDelta(t, 0.02, cfg.Geo.ClusterThreshold, 0.0001)
	assert.Equal(t, "Florida", cfg.Geo.Region)
	assert.Equal(t, []string{"Miami", "FL"}, cfg.Geo.KeywordLocations)
	assert.Equal(t, "Miami, FL", cfg.Dashboard.Location)
	assert.Equal(t, 1, cfg.Dashboard.FanoutConcurrency)
	assert.Equal(t, "US-FL", cfg.Dashboard.TrendsGeo)
	assert.Equal(t, "movebuddha.com", cfg.Dashboard.CompetitorDomain)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/leadtech
cache:
  fresh_minutes: 30
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 30, cfg.Cache.FreshMinutes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 15, cfg.Cache.PayloadMaxAgeMinutes)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("LEADTECH_STORE_DRIVER", "sqlite")
	t.Setenv("LEADTECH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEADTECH_SERPAPI_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEADTECH_SERPAPI_KEY") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.SerpAPI.Key)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "x.db"},
			SerpAPI: SerpAPIConfig{Key: "k"},
			Cache:   CacheConfig{FreshMinutes: 15},
			Server:  ServerConfig{Port: 8080},
		}
	}

	assert.NoError(t, base().Validate("serve"))
	assert.NoError(t, base().Validate("store"))

	noKey := base()
	noKey.SerpAPI.Key = ""
	err := noKey.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serpapi.key is required")
	assert.NoError(t, noKey.Validate("store"))

	badDriver := base()
	badDriver.Store.Driver = "mysql"
	err = badDriver.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")

	badPort := base()
	badPort.Server.Port = 0
	err = badPort.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
