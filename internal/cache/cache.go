// Package cache decides whether a previous provider response for an
// (endpoint, query, location) triple can be reused, and records every
// provider call in the call log.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/LeadTechMaster/API/internal/metrics"
	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// Key identifies a cached call.
type Key = store.CallKey

// CallLog is the subset of the store the cache reads and writes.
type CallLog interface {
	LogCall(ctx context.Context, rec *model.CallRecord) error
	LatestSuccess(ctx context.Context, key store.CallKey) (*model.CallRecord, error)
	CachedPayload(ctx context.Context, key store.CallKey, since time.Time) (*model.CallRecord, error)
}

// Freshness describes the most recent successful call for a key. LastUpdated
// and AgeMinutes are nil when no successful call exists.
type Freshness struct {
	LastUpdated  *time.Time `json:"last_updated"`
	AgeMinutes   *int       `json:"age_minutes"`
	IsFresh      bool       `json:"is_fresh"`
	NeedsRefresh bool       `json:"needs_refresh"`
}

// Cache wraps provider fetches with freshness checks.
type Cache struct {
	log           CallLog
	freshFor      time.Duration
	payloadMaxAge time.Duration
	metrics       *metrics.Metrics
	now           func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithFreshFor sets the age below which a successful call counts as fresh.
func WithFreshFor(d time.Duration) Option {
	return func(c *Cache) { c.freshFor = d }
}

// WithPayloadMaxAge sets how old a cached payload may be when served. It is
// checked separately from the freshness flag.
func WithPayloadMaxAge(d time.Duration) Option {
	return func(c *Cache) { c.payloadMaxAge = d }
}

// WithMetrics records hits, misses and provider calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over log. Both thresholds default to 15 minutes.
func New(log CallLog, opts ...Option) *Cache {
	c := &Cache{
		log:           log,
		freshFor:      15 * time.Minute,
		payloadMaxAge: 15 * time.Minute,
		now:           time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FreshFor returns the configured freshness threshold.
func (c *Cache) FreshFor() time.Duration { return c.freshFor }

// IsFresh reports whether the latest successful call for key is younger than
// threshold. Error records never count.
func (c *Cache) IsFresh(ctx context.Context, key Key, threshold time.Duration) (Freshness, error) {
	rec, err := c.log.LatestSuccess(ctx, key)
	if err != nil {
		return Freshness{NeedsRefresh: true}, eris.Wrap(err, "cache: latest success")
	}
	if rec == nil {
		return Freshness{NeedsRefresh: true}, nil
	}

	age := rec.Age(c.now())
	minutes := int(age / time.Minute)
	updated := rec.CreatedAt
	fresh := age < threshold

	return Freshness{
		LastUpdated:  &updated,
		AgeMinutes:   &minutes,
		IsFresh:      fresh,
		NeedsRefresh: !fresh,
	}, nil
}

// Request names the call to serve.
type Request struct {
	Key
	// Refresh skips the cache and always calls the provider.
	Refresh bool
}

// Result is the annotated outcome of FetchOrRefresh.
type Result[T any] struct {
	Status         model.Status `json:"status"`
	Error          string       `json:"error,omitempty"`
	Data           *T           `json:"data,omitempty"`
	FromCache      bool         `json:"from_cache"`
	CachedAt       *time.Time   `json:"cached_at,omitempty"`
	AgeMinutes     *int         `json:"age_minutes,omitempty"`
	CallID         string       `json:"call_id,omitempty"`
	ResponseTimeMS int64        `json:"response_time_ms"`
}

// OK reports whether the result carries data.
func (r Result[T]) OK() bool { return r.Status == model.StatusSuccess }

// FetchFunc calls the provider and normalizes its response.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// PersistFunc writes a normalized result to the store under callID.
type PersistFunc[T any] func(ctx context.Context, data T, callID string) error

// FetchOrRefresh serves req from the call log when a fresh payload exists,
// otherwise calls fetch, logs the call and persists a successful result.
// Provider errors become an error Result. Log and persist failures are
// logged and never fail the call.
func FetchOrRefresh[T any](ctx context.Context, c *Cache, req Request, fetch FetchFunc[T], persist PersistFunc[T]) Result[T] {
	log := zap.L().With(
		zap.String("endpoint", req.Endpoint),
		zap.String("query", req.Query),
		zap.String("location", req.Location),
	)

	if !req.Refresh {
		if res, ok := fromCache[T](ctx, c, req.Key, log); ok {
			c.metrics.RecordCacheHit(req.Endpoint)
			log.Debug("served from cache", zap.String("call_id", res.CallID))
			return res
		}
	}
	c.metrics.RecordCacheMiss(req.Endpoint)

	start := c.now()
	data, fetchErr := fetch(ctx)
	elapsed := c.now().Sub(start)

	rec := &model.CallRecord{
		ID:             uuid.New().String(),
		Endpoint:       req.Endpoint,
		Query:          req.Query,
		Location:       req.Location,
		Status:         model.StatusSuccess,
		ResponseTimeMS: elapsed.Milliseconds(),
		CreatedAt:      c.now(),
	}
	if fetchErr != nil {
		rec.Status = model.StatusError
		rec.ErrorMessage = fetchErr.Error()
	} else {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Warn("encode payload for call log", zap.Error(err))
		} else {
			rec.RawResponse = raw
		}
	}

	if err := c.log.LogCall(ctx, rec); err != nil {
		log.Warn("log call failed", zap.String("call_id", rec.ID), zap.Error(err))
	}
	c.metrics.RecordProviderCall(req.Endpoint, string(rec.Status), elapsed)

	if fetchErr != nil {
		log.Warn("provider call failed",
			zap.String("call_id", rec.ID),
			zap.Int64("elapsed_ms", rec.ResponseTimeMS),
			zap.Error(fetchErr),
		)
		return Result[T]{
			Status:         model.StatusError,
			Error:          fetchErr.Error(),
			CallID:         rec.ID,
			ResponseTimeMS: rec.ResponseTimeMS,
		}
	}

	if persist != nil {
		if err := persist(ctx, data, rec.ID); err != nil {
			c.metrics.RecordPersistFailure(req.Endpoint)
			log.Warn("persist failed", zap.String("call_id", rec.ID), zap.Error(err))
		}
	}

	log.Info("provider call complete",
		zap.String("call_id", rec.ID),
		zap.Int64("elapsed_ms", rec.ResponseTimeMS),
	)
	return Result[T]{
		Status:         model.StatusSuccess,
		Data:           &data,
		CallID:         rec.ID,
		ResponseTimeMS: rec.ResponseTimeMS,
	}
}

func fromCache[T any](ctx context.Context, c *Cache, key Key, log *zap.Logger) (Result[T], bool) {
	fr, err := c.IsFresh(ctx, key, c.freshFor)
	if err != nil {
		log.Warn("freshness lookup failed", zap.Error(err))
		return Result[T]{}, false
	}
	if !fr.IsFresh {
		return Result[T]{}, false
	}

	now := c.now()
	rec, err := c.log.CachedPayload(ctx, key, now.Add(-c.payloadMaxAge))
	if err != nil {
		log.Warn("cached payload lookup failed", zap.Error(err))
		return Result[T]{}, false
	}
	if rec == nil || len(rec.RawResponse) == 0 {
		return Result[T]{}, false
	}

	var data T
	if err := json.Unmarshal(rec.RawResponse, &data); err != nil {
		log.Warn("decode cached payload", zap.String("call_id", rec.ID), zap.Error(err))
		return Result[T]{}, false
	}

	cachedAt := rec.CreatedAt
	age := int(rec.Age(now) / time.Minute)
	return Result[T]{
		Status:     model.StatusSuccess,
		Data:       &data,
		FromCache:  true,
		CachedAt:   &cachedAt,
		AgeMinutes: &age,
		CallID:     rec.ID,
	}, true
}
