package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LeadTechMaster/API/internal/cache"
	"github.com/LeadTechMaster/API/internal/config"
	"github.com/LeadTechMaster/API/internal/geo"
	"github.com/LeadTechMaster/API/internal/metrics"
	"github.com/LeadTechMaster/API/internal/resilience"
	"github.com/LeadTechMaster/API/internal/source"
	"github.com/LeadTechMaster/API/internal/store"
	"github.com/LeadTechMaster/API/pkg/serpapi"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadtech.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens the configured store and applies the schema.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newClient(c config.SerpAPIConfig) serpapi.Client {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxRetries + 1

	opts := []serpapi.Option{
		serpapi.WithRetry(retry),
		serpapi.WithBreaker(resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig())),
	}
	if c.BaseURL != "" {
		opts = append(opts, serpapi.WithBaseURL(c.BaseURL))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, serpapi.WithTimeout(time.Duration(c.TimeoutSecs)*time.Second))
	}
	if c.RatePerSec > 0 {
		opts = append(opts, serpapi.WithRateLimit(rate.Limit(c.RatePerSec), max(c.Burst, 1)))
	}
	return serpapi.NewClient(c.Key, opts...)
}

func newCache(st store.Store, m *metrics.Metrics) *cache.Cache {
	return cache.New(st,
		cache.WithFreshFor(time.Duration(cfg.Cache.FreshMinutes)*time.Minute),
		cache.WithPayloadMaxAge(time.Duration(cfg.Cache.PayloadMaxAgeMinutes)*time.Minute),
		cache.WithMetrics(m),
	)
}

func dashboardDefaults(c config.DashboardConfig) source.Defaults {
	return source.Defaults{
		Industry:         c.Industry,
		Keyword:          c.Keyword,
		Location:         c.Location,
		TrendsGeo:        c.TrendsGeo,
		CompetitorDomain: c.CompetitorDomain,
	}
}

// newService tags persisted records with the current session of the
// configured market, opening one if none is open.
func newService(ctx context.Context, st store.Store, c *cache.Cache) (*source.Service, error) {
	sess, err := st.CurrentSession(ctx, cfg.Dashboard.Industry, cfg.Dashboard.Location)
	if err != nil {
		return nil, eris.Wrap(err, "current session")
	}
	zap.L().Info("using session", zap.String("session_id", sess.ID), zap.String("name", sess.Name))

	return source.NewService(newClient(cfg.SerpAPI), st, c, sess.ID,
		source.WithMapCenter(cfg.Geo.CenterLat, cfg.Geo.CenterLng, cfg.Geo.Zoom),
	), nil
}

func newGeoEngine(r geo.Reader, c config.GeoConfig) (*geo.Engine, error) {
	opts := []geo.Option{
		geo.WithCenter(geo.Center{Lat: c.CenterLat, Lng: c.CenterLng, Zoom: c.Zoom}),
		geo.WithClusterThreshold(c.ClusterThreshold),
		geo.WithRegion(c.Region),
		geo.WithKeywordLocations(c.KeywordLocations),
	}
	if c.AreasFile != "" {
		areas, err := geo.LoadAreas(c.AreasFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, geo.WithAreas(areas))
	}
	return geo.NewEngine(r, opts...), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
