package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeadTechMaster/API/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Geo       GeoConfig       `yaml:"geo" mapstructure:"geo"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SerpAPIConfig holds search provider credentials and transport settings.
type SerpAPIConfig struct {
	Key         string     `yaml:"key" mapstructure:"key"`
	BaseURL     string     `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int        `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64    `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int        `yaml:"burst" mapstructure:"burst"`
	MaxRetries  int        `yaml:"max_retries" mapstructure:"max_retries"`
	Plan        cost.Rates `yaml:"plan" mapstructure:"plan"`
}

// CacheConfig configures the freshness cache. FreshMinutes governs the
// freshness flag; PayloadMaxAgeMinutes governs how old a cached payload may
// be when served.
type CacheConfig struct {
	FreshMinutes         int `yaml:"fresh_minutes" mapstructure:"fresh_minutes"`
	PayloadMaxAgeMinutes int `yaml:"payload_max_age_minutes" mapstructure:"payload_max_age_minutes"`
}

// GeoConfig configures map aggregation.
type GeoConfig struct {
	CenterLat        float64  `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng        float64  `yaml:"center_lng" mapstructure:"center_lng"`
	Zoom             int      `yaml:"zoom" mapstructure:"zoom"`
	ClusterThreshold float64  `yaml:"cluster_threshold" mapstructure:"cluster_threshold"`
	Region           string   `yaml:"region" mapstructure:"region"`
	KeywordLocations []string `yaml:"keyword_locations" mapstructure:"keyword_locations"`
	AreasFile        string   `yaml:"areas_file" mapstructure:"areas_file"`
}

// DashboardConfig holds the default market the dashboard reports on.
type DashboardConfig struct {
	Industry          string `yaml:"industry" mapstructure:"industry"`
	Location          string `yaml:"location" mapstructure:"location"`
	Keyword           string `yaml:"keyword" mapstructure:"keyword"`
	TrendsGeo         string `yaml:"trends_geo" mapstructure:"trends_geo"`
	CompetitorDomain  string `yaml:"competitor_domain" mapstructure:"competitor_domain"`
	FanoutConcurrency int    `yaml:"fanout_concurrency" mapstructure:"fanout_concurrency"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADTECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadtech.db")
	v.SetDefault("serpapi.key", "")
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.timeout_secs", 30)
	v.SetDefault("serpapi.rate_per_sec", 2)
	v.SetDefault("serpapi.burst", 2)
	v.SetDefault("serpapi.max_retries", 2)
	v.SetDefault("serpapi.plan.plan_monthly", cost.DefaultRates().PlanMonthly)
	v.SetDefault("serpapi.plan.searches_included", cost.DefaultRates().SearchesIncluded)
	v.SetDefault("cache.fresh_minutes", 15)
	v.SetDefault("cache.payload_max_age_minutes", 15)
	v.SetDefault("geo.center_lat", 25.7617)
	v.SetDefault("geo.center_lng", -80.1918)
	v.SetDefault("geo.zoom", 11)
	v.SetDefault("geo.cluster_threshold", 0.02)
	v.SetDefault("geo.region", "Florida")
	v.SetDefault("geo.keyword_locations", []string{"Miami", "FL"})
	v.SetDefault("geo.areas_file", "")
	v.SetDefault("dashboard.industry", "moving_companies")
	v.SetDefault("dashboard.location", "Miami, FL")
	v.SetDefault("dashboard.keyword", "moving companies miami")
	v.SetDefault("dashboard.trends_geo", "US-FL")
	v.SetDefault("dashboard.competitor_domain", "movebuddha.com")
	v.SetDefault("dashboard.fanout_concurrency", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs before it starts.
// Modes: "serve", "fetch", "store".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch mode {
	case "serve":
		if c.SerpAPI.Key == "" {
			problems = append(problems, "serpapi.key is required")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	case "fetch":
		if c.SerpAPI.Key == "" {
			problems = append(problems, "serpapi.key is required")
		}
	}

	if c.Cache.FreshMinutes <= 0 {
		problems = append(problems, "cache.fresh_minutes must be positive")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
