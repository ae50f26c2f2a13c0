package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeadTechMaster/API/internal/metrics"
	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

type listings struct {
	Names []string `json:"names"`
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)} }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var movers = Key{Endpoint: "Local Businesses (Maps)", Query: "moving companies", Location: "Miami, FL"}

func countingFetch(calls *int, names ...string) FetchFunc[listings] {
	return func(context.Context) (listings, error) {
		*calls++
		return listings{Names: names}, nil
	}
}

func TestIsFresh_NoRecords(t *testing.T) {
	c := New(newTestStore(t))

	fr, err := c.IsFresh(context.Background(), movers, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, fr.IsFresh)
	assert.True(t, fr.NeedsRefresh)
	assert.Nil(t, fr.LastUpdated)
	assert.Nil(t, fr.AgeMinutes)
}

func TestIsFresh_Threshold(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now))
	ctx := context.Background()

	require.NoError(t, st.LogCall(ctx, &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: movers.Location,
		Status: model.StatusSuccess, CreatedAt: clk.now(),
	}))

	clk.advance(14*time.Minute + 59*time.Second)
	fr, err := c.IsFresh(ctx, movers, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, fr.IsFresh)
	assert.False(t, fr.NeedsRefresh)
	require.NotNil(t, fr.AgeMinutes)
	assert.Equal(t, 14, *fr.AgeMinutes)
	require.NotNil(t, fr.LastUpdated)
	assert.True(t, fr.LastUpdated.Equal(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	clk.advance(time.Second)
	fr, err = c.IsFresh(ctx, movers, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, fr.IsFresh, "age equal to the threshold is stale")
	assert.Equal(t, 15, *fr.AgeMinutes)
}

func TestIsFresh_ErrorRecordsNeverFresh(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now))
	ctx := context.Background()

	require.NoError(t, st.LogCall(ctx, &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: movers.Location,
		Status: model.StatusError, ErrorMessage: "timeout", CreatedAt: clk.now(),
	}))

	fr, err := c.IsFresh(ctx, movers, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, fr.IsFresh)
	assert.Nil(t, fr.LastUpdated)
}

func TestIsFresh_TriplesAreIndependent(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now))
	ctx := context.Background()

	require.NoError(t, st.LogCall(ctx, &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: movers.Location,
		Status: model.StatusSuccess, CreatedAt: clk.now(),
	}))

	for _, other := range []Key{
		{Endpoint: "Yelp Business Search", Query: movers.Query, Location: movers.Location},
		{Endpoint: movers.Endpoint, Query: "plumbers", Location: movers.Location},
		{Endpoint: movers.Endpoint, Query: movers.Query, Location: "Orlando, FL"},
	} {
		fr, err := c.IsFresh(ctx, other, 15*time.Minute)
		require.NoError(t, err)
		assert.False(t, fr.IsFresh, "%+v", other)
	}
}

func TestFetchOrRefresh_MissThenHit(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now))
	ctx := context.Background()

	var calls int
	var persistedCallID string
	persist := func(_ context.Context, data listings, callID string) error {
		persistedCallID = callID
		assert.Equal(t, []string{"Acme Movers", "Blue Truck"}, data.Names)
		return nil
	}

	first := FetchOrRefresh(ctx, c, Request{Key: movers}, countingFetch(&calls, "Acme Movers", "Blue Truck"), persist)
	require.True(t, first.OK())
	assert.False(t, first.FromCache)
	assert.NotEmpty(t, first.CallID)
	assert.Equal(t, first.CallID, persistedCallID)
	assert.Equal(t, 1, calls)

	clk.advance(5 * time.Minute)
	second := FetchOrRefresh(ctx, c, Request{Key: movers}, countingFetch(&calls, "unused"), nil)
	require.True(t, second.OK())
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, calls, "fresh payload must not refetch")
	assert.Equal(t, first.CallID, second.CallID)
	require.NotNil(t, second.Data)
	assert.Equal(t, []string{"Acme Movers", "Blue Truck"}, second.Data.Names)
	require.NotNil(t, second.AgeMinutes)
	assert.Equal(t, 5, *second.AgeMinutes)
	require.NotNil(t, second.CachedAt)

	clk.advance(10 * time.Minute)
	third := FetchOrRefresh(ctx, c, Request{Key: movers}, countingFetch(&calls, "Acme Movers"), nil)
	require.True(t, third.OK())
	assert.False(t, third.FromCache, "stale after the threshold")
	assert.Equal(t, 2, calls)
}

func TestFetchOrRefresh_ForceRefreshNeverReadsCache(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now))
	ctx := context.Background()

	var calls int
	_ = FetchOrRefresh(ctx, c, Request{Key: movers}, countingFetch(&calls, "a"), nil)

	clk.advance(time.Minute)
	res := FetchOrRefresh(ctx, c, Request{Key: movers, Refresh: true}, countingFetch(&calls, "b"), nil)
	require.True(t, res.OK())
	assert.False(t, res.FromCache)
	assert.Equal(t, []string{"b"}, res.Data.Names)
	assert.Equal(t, 2, calls)

	recent, err := st.RecentCalls(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2, "every forced refresh logs a new call")
}

func TestFetchOrRefresh_ProviderErrorIsLoggedAndNotCached(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now))
	ctx := context.Background()

	var calls int
	failing := func(context.Context) (listings, error) {
		calls++
		return listings{}, errors.New("serpapi: google_maps: unexpected status 503")
	}
	persistCalled := false
	persist := func(context.Context, listings, string) error {
		persistCalled = true
		return nil
	}

	res := FetchOrRefresh(ctx, c, Request{Key: movers}, failing, persist)
	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "503")
	assert.Nil(t, res.Data)
	assert.NotEmpty(t, res.CallID)
	assert.False(t, persistCalled)

	recent, err := st.RecentCalls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.StatusError, recent[0].Status)

	fr, err := c.IsFresh(ctx, movers, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, fr.IsFresh)

	_ = FetchOrRefresh(ctx, c, Request{Key: movers}, failing, nil)
	assert.Equal(t, 2, calls, "next call performs a real fetch")
}

func TestFetchOrRefresh_PersistFailureSwallowed(t *testing.T) {
	st := newTestStore(t)
	m := metrics.New()
	c := New(st, WithClock(newClock().now), WithMetrics(m))

	var calls int
	res := FetchOrRefresh(context.Background(), c, Request{Key: movers}, countingFetch(&calls, "a"),
		func(context.Context, listings, string) error { return errors.New("disk full") })

	require.True(t, res.OK())
	assert.Equal(t, []string{"a"}, res.Data.Names)
}

func TestFetchOrRefresh_PayloadMaxAgeIsSeparate(t *testing.T) {
	st := newTestStore(t)
	clk := newClock()
	c := New(st, WithClock(clk.now), WithFreshFor(15*time.Minute), WithPayloadMaxAge(5*time.Minute))
	ctx := context.Background()

	var calls int
	_ = FetchOrRefresh(ctx, c, Request{Key: movers}, countingFetch(&calls, "a"), nil)

	clk.advance(10 * time.Minute)
	fr, err := c.IsFresh(ctx, movers, c.FreshFor())
	require.NoError(t, err)
	assert.True(t, fr.IsFresh)

	res := FetchOrRefresh(ctx, c, Request{Key: movers}, countingFetch(&calls, "b"), nil)
	assert.False(t, res.FromCache, "payload older than its max age is refetched")
	assert.Equal(t, 2, calls)
}

type brokenLog struct{}

func (brokenLog) LogCall(context.Context, *model.CallRecord) error { return errors.New("db locked") }
func (brokenLog) LatestSuccess(context.Context, store.CallKey) (*model.CallRecord, error) {
	return nil, errors.New("db locked")
}
func (brokenLog) CachedPayload(context.Context, store.CallKey, time.Time) (*model.CallRecord, error) {
	return nil, errors.New("db locked")
}

func TestFetchOrRefresh_LogFailureStillReturnsData(t *testing.T) {
	c := New(brokenLog{})

	var calls int
	persisted := false
	res := FetchOrRefresh(context.Background(), c, Request{Key: movers}, countingFetch(&calls, "a"),
		func(context.Context, listings, string) error { persisted = true; return nil })

	require.True(t, res.OK())
	assert.Equal(t, 1, calls)
	assert.True(t, persisted)
}

func TestIsFresh_StoreError(t *testing.T) {
	c := New(brokenLog{})

	fr, err := c.IsFresh(context.Background(), movers, time.Minute)
	require.Error(t, err)
	assert.False(t, fr.IsFresh)
}
