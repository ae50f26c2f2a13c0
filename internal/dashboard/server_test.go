package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LeadTechMaster/API/internal/analytics"
	"github.com/LeadTechMaster/API/internal/cache"
	"github.com/LeadTechMaster/API/internal/geo"
	"github.com/LeadTechMaster/API/internal/metrics"
	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/source"
	"github.com/LeadTechMaster/API/internal/store"
	"github.com/LeadTechMaster/API/pkg/serpapi/mocks"
)

const paaPayload = `{"related_questions": [{"question": "How much do movers cost?", "snippet": "About $1,250"}]}`

var defaults = source.Defaults{
	Industry:         "moving_companies",
	Keyword:          "moving companies miami",
	Location:         "Miami, FL",
	TrendsGeo:        "US-FL",
	CompetitorDomain: "movebuddha.com",
}

type testServer struct {
	client *mocks.MockClient
	store  *store.SQLiteStore
	srv    *httptest.Server
}

func newTestServer(t *testing.T, edit ...func(*Deps)) *testServer {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	client := mocks.NewMockClient(t)
	c := cache.New(st)
	deps := Deps{
		Registry:  source.NewRegistry(),
		Service:   source.NewService(client, st, c, "sess-1"),
		Cache:     c,
		Store:     st,
		Geo:       geo.NewEngine(st),
		Analytics: analytics.New(st),
		Metrics:   metrics.New(),
		Defaults:  defaults,
	}
	for _, fn := range edit {
		fn(&deps)
	}
	srv := httptest.NewServer(New(deps).Handler())
	t.Cleanup(srv.Close)
	return &testServer{client: client, store: st, srv: srv}
}

func (ts *testServer) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func paramIs(key, want string) any {
	return mock.MatchedBy(func(v url.Values) bool { return v.Get(key) == want })
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	code, body := ts.get(t, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestEndpoint_UsesDashboardDefaults(t *testing.T) {
	ts := newTestServer(t)
	ts.client.On("Search", mock.Anything, "google", mock.MatchedBy(func(v url.Values) bool {
		return v.Get("q") == defaults.Keyword && v.Get("location") == defaults.Location
	})).Return(json.RawMessage(paaPayload), nil).Once()

	code, body := ts.get(t, "/api/people-also-ask")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, false, body["from_cache"])
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total_questions"])
}

func TestEndpoint_OverridesCacheAndRefresh(t *testing.T) {
	ts := newTestServer(t)
	ts.client.On("Search", mock.Anything, "google", paramIs("q", "movers")).
		Return(json.RawMessage(paaPayload), nil).Twice()

	_, first := ts.get(t, "/api/people-also-ask?q=movers&location=Tampa,+FL")
	_, second := ts.get(t, "/api/people-also-ask?q=movers&location=Tampa,+FL")
	_, refreshed := ts.get(t, "/api/people-also-ask?q=movers&location=Tampa,+FL&refresh=true")

	assert.Equal(t, false, first["from_cache"])
	assert.Equal(t, true, second["from_cache"])
	assert.Equal(t, false, refreshed["from_cache"])

	stored, err := ts.store.RecentQuestions(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "one persisted row per provider call")
}

func TestEndpoint_ProviderError(t *testing.T) {
	ts := newTestServer(t)
	ts.client.On("Search", mock.Anything, "google", mock.Anything).
		Return(nil, errors.New("serpapi: monthly quota exhausted"))

	code, body := ts.get(t, "/api/people-also-ask")

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "quota exhausted")
	assert.Nil(t, body["data"])
}

func TestEndpoint_Unknown(t *testing.T) {
	ts := newTestServer(t)
	code, body := ts.get(t, "/api/no-such-source")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, map[string]any{"status": "error", "error": "unknown endpoint no-such-source"}, body)
}

func TestAllData_EverySectionReportsItsOwnStatus(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Fanout = 4 })
	ts.client.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("provider unavailable"))

	code, body := ts.get(t, "/api/all-data")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "sess-1", body["session_id"])
	assert.EqualValues(t, 0, body["succeeded"])
	assert.EqualValues(t, 32, body["failed"])
	data := body["data"].(map[string]any)
	require.Len(t, data, 32)
	section := data["people-also-ask"].(map[string]any)
	assert.Equal(t, "error", section["status"])
	assert.Contains(t, section["error"], "provider unavailable")
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.client.On("Search", mock.Anything, "google", mock.Anything).Return(json.RawMessage(paaPayload), nil)
	ts.get(t, "/api/people-also-ask")

	code, body := ts.get(t, "/api/status")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "sess-1", body["session_id"])
	assert.EqualValues(t, 32, body["endpoints"])
	assert.EqualValues(t, 15, body["cache_fresh_minutes"])
	calls := body["recent_calls"].([]any)
	require.Len(t, calls, 1)
	assert.Equal(t, "People Also Ask", calls[0].(map[string]any)["endpoint"])
}

type failingStore struct{}

func (failingStore) RecentCalls(context.Context, int) ([]model.CallRecord, error) {
	return nil, errors.New("database is locked")
}

func (failingStore) VolumeTimeline(context.Context, string, string, string) ([]model.VolumeSample, error) {
	return nil, errors.New("database is locked")
}

func TestStoreFailures(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) { d.Store = failingStore{} })

	for _, path := range []string{"/api/status", "/api/keyword-timeline"} {
		code, body := ts.get(t, path)
		assert.Equal(t, http.StatusInternalServerError, code, path)
		assert.Equal(t, "error", body["status"], path)
		assert.Equal(t, "database is locked", body["error"], path)
	}
}

func TestDataFreshness(t *testing.T) {
	ts := newTestServer(t)
	ts.client.On("Search", mock.Anything, "google", mock.Anything).Return(json.RawMessage(paaPayload), nil)
	ts.get(t, "/api/people-also-ask")

	code, body := ts.get(t, "/api/data-freshness")

	assert.Equal(t, http.StatusOK, code)
	entries := body["endpoints"].([]any)
	require.Len(t, entries, 32)
	var fresh []string
	for _, e := range entries {
		entry := e.(map[string]any)
		if entry["is_fresh"] == true {
			fresh = append(fresh, entry["slug"].(string))
			assert.NotNil(t, entry["last_updated"])
			continue
		}
		assert.Equal(t, true, entry["needs_refresh"], entry["slug"])
		assert.Nil(t, entry["age_minutes"], entry["slug"])
	}
	assert.Equal(t, []string{"people-also-ask"}, fresh)
}

func TestMapData(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.store.UpsertBusinesses(context.Background(), []model.Business{{
		Name: "Joe's Movers", Platform: model.PlatformMaps,
		Latitude: model.Float(25.77), Longitude: model.Float(-80.19),
		Rating: model.Float(4.8), Reviews: model.Int(500),
	}})
	require.NoError(t, err)

	code, body := ts.get(t, "/api/map-data")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	for _, key := range []string{"business_locations", "rating_heatmap", "regional_interest", "market_density", "competitor_clusters"} {
		section := body[key].(map[string]any)
		assert.Equal(t, "success", section["status"], key)
	}
	points := body["business_locations"].(map[string]any)["data"].(map[string]any)
	assert.EqualValues(t, 1, points["total_businesses"])
}

func TestMarketingAnalytics(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.get(t, "/api/marketing-analytics")

	assert.Equal(t, http.StatusOK, code)
	for _, key := range []string{"market_penetration", "competitive_intelligence", "content_strategy", "pricing_intelligence", "trend_analysis"} {
		section := body[key].(map[string]any)
		assert.Equal(t, "success", section["status"], key)
	}
}

func TestOptionalSections(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) {
		d.Geo = nil
		d.Analytics = nil
	})
	for _, path := range []string{"/api/map-data", "/api/marketing-analytics"} {
		code, body := ts.get(t, path)
		assert.Equal(t, http.StatusServiceUnavailable, code, path)
		assert.Equal(t, "error", body["status"], path)
	}
}

func TestKeywordTimeline(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.AddVolumeSamples(context.Background(), []model.VolumeSample{
		{Keyword: "movers", Location: "Miami", DateRange: "today 3-m", TimelineDate: "Mar 2025", Interest: 40, CallID: "c1"},
		{Keyword: "movers", Location: "Miami", DateRange: "today 3-m", TimelineDate: "Apr 2025", Interest: 55, CallID: "c1"},
		{Keyword: "movers", Location: "Miami", DateRange: "today 3-m", AvgInterest: model.Float(47.5), CallID: "c1"},
		{Keyword: "movers", Location: "Miami", DateRange: "today 12-m", TimelineDate: "2024", Interest: 10, CallID: "c1"},
	}))

	code, body := ts.get(t, "/api/keyword-timeline?keyword=movers&location=Miami")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "today 3-m", body["date_range"])
	assert.Equal(t, []any{
		map[string]any{"date": "Mar 2025", "interest": 40.0},
		map[string]any{"date": "Apr 2025", "interest": 55.0},
	}, body["timeline"])

	_, empty := ts.get(t, "/api/keyword-timeline")
	assert.Equal(t, defaults.Keyword, empty["keyword"])
	assert.Equal(t, []any{}, empty["timeline"])
}

func TestCORSAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `leadtech_http_requests_total{code="OK",route="/health"} 1`)
}
