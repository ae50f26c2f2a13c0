package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeadTechMaster/API/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var movers = CallKey{Endpoint: "Local Businesses (Maps)", Query: "moving companies", Location: "Miami, FL"}

// --- Call log ---

func TestSQLite_LatestSuccess_IgnoresErrors(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.LogCall(ctx, &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: movers.Location,
		Status: model.StatusSuccess, CreatedAt: base,
	}))
	require.NoError(t, st.LogCall(ctx, &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: movers.Location,
		Status: model.StatusError, ErrorMessage: "timeout", CreatedAt: base.Add(time.Minute),
	}))

	rec, err := st.LatestSuccess(ctx, movers)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.StatusSuccess, rec.Status)
	assert.True(t, base.Equal(rec.CreatedAt), "got %v", rec.CreatedAt)
}

func TestSQLite_LatestSuccess_None(t *testing.T) {
	st := newTestSQLiteStore(t)

	rec, err := st.LatestSuccess(context.Background(), movers)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLite_LatestSuccess_KeyIsExact(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.LogCall(ctx, &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: "Tampa, FL", Status: model.StatusSuccess,
	}))

	rec, err := st.LatestSuccess(ctx, movers)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSQLite_CachedPayload(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rec := &model.CallRecord{
		Endpoint: movers.Endpoint, Query: movers.Query, Location: movers.Location,
		Status: model.StatusSuccess, RawResponse: json.RawMessage(`{"businesses":[]}`), CreatedAt: base,
	}
	require.NoError(t, st.LogCall(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	got, err := st.CachedPayload(ctx, movers, base.Add(-time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.JSONEq(t, `{"businesses":[]}`, string(got.RawResponse))

	got, err = st.CachedPayload(ctx, movers, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_RecentCallsAndPrune(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, st.LogCall(ctx, &model.CallRecord{
			Endpoint: "Google Search", Query: "q", Status: model.StatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	calls, err := st.RecentCalls(ctx, 2)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.True(t, calls[0].CreatedAt.After(calls[1].CreatedAt))

	n, err := st.PruneCalls(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	calls, err = st.RecentCalls(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, calls, 1)

	count, err := st.CountCalls(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = st.CountCalls(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

// --- Sessions ---

func TestSQLite_CurrentSession_GetOrCreate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	st.now = func() time.Time { return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) }

	first, err := st.CurrentSession(ctx, "moving_companies", "Miami, FL")
	require.NoError(t, err)
	assert.Equal(t, "moving_companies - Miami, FL - 2025-06-01 09:30", first.Name)
	assert.True(t, first.Open())

	again, err := st.CurrentSession(ctx, "moving_companies", "Miami, FL")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := st.CurrentSession(ctx, "moving_companies", "Tampa, FL")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	require.NoError(t, st.CloseSession(ctx, first.ID))
	next, err := st.CurrentSession(ctx, "moving_companies", "Miami, FL")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)

	err = st.CloseSession(ctx, first.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// --- Businesses ---

func TestSQLite_UpsertBusinesses_LastWriteWins(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertBusinesses(ctx, []model.Business{
		{Name: "Acme Movers", Platform: model.PlatformMaps, Rating: model.Float(4.1), Reviews: model.Int(10)},
	})
	require.NoError(t, err)
	_, err = st.UpsertBusinesses(ctx, []model.Business{
		{Name: "Acme Movers", Platform: model.PlatformMaps, Rating: model.Float(4.8), Reviews: model.Int(12)},
	})
	require.NoError(t, err)

	got, err := st.ListBusinesses(ctx, BusinessFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 4.8, *got[0].Rating, 0.0001)
	assert.Equal(t, 12, *got[0].Reviews)
}

func TestSQLite_UpsertBusinesses_SameNameOtherPlatform(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertBusinesses(ctx, []model.Business{
		{Name: "Acme Movers", Platform: model.PlatformMaps},
		{Name: "Acme Movers", Platform: model.PlatformYelp},
	})
	require.NoError(t, err)

	got, err := st.ListBusinesses(ctx, BusinessFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_UpsertBusinesses_RejectsInvalid(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.UpsertBusinesses(context.Background(), []model.Business{
		{Name: "Bad", Platform: model.PlatformMaps, Rating: model.Float(7)},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidRating))
}

func TestSQLite_ListBusinesses_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertBusinesses(ctx, []model.Business{
		{Name: "A", Platform: model.PlatformMaps, Rating: model.Float(4.5), Reviews: model.Int(500),
			Latitude: model.Float(25.77), Longitude: model.Float(-80.19)},
		{Name: "B", Platform: model.PlatformMaps, Reviews: model.Int(50)},
		{Name: "C", Platform: model.PlatformYelp, Rating: model.Float(3.0), Reviews: model.Int(150),
			Latitude: model.Float(25.78)},
	})
	require.NoError(t, err)

	withCoords, err := st.ListBusinesses(ctx, BusinessFilter{WithCoordinates: true})
	require.NoError(t, err)
	require.Len(t, withCoords, 1)
	assert.Equal(t, "A", withCoords[0].Name)

	maps, err := st.ListBusinesses(ctx, BusinessFilter{Platforms: []model.Platform{model.PlatformMaps}, OrderByReviews: true})
	require.NoError(t, err)
	require.Len(t, maps, 2)
	assert.Equal(t, "A", maps[0].Name)

	rated, err := st.ListBusinesses(ctx, BusinessFilter{RatedOnly: true, MinReviews: 100, OrderByReviews: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, rated, 1)
	assert.Equal(t, "A", rated[0].Name)
	assert.Nil(t, maps[1].Rating)
}

// --- Keywords and regions ---

func TestSQLite_Keywords(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: "movers", Location: "Miami, FL", DifficultyScore: 70, SearchVolume: model.Int(900)}))
	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: "movers", Location: "Miami, FL", DifficultyScore: 20, SearchVolume: model.Int(1000)}))
	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: "storage", Location: "Austin, TX", DifficultyScore: 40}))

	all, err := st.ListKeywords(ctx, KeywordFilter{OrderBy: OrderByDifficulty})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "movers", all[0].Keyword)
	assert.Equal(t, model.DifficultyEasy, all[0].DifficultyLevel)

	miami, err := st.ListKeywords(ctx, KeywordFilter{LocationLike: []string{"Miami", "FL"}, OrderBy: OrderByVolume})
	require.NoError(t, err)
	require.Len(t, miami, 1)
	assert.Equal(t, 1000, *miami[0].SearchVolume)
}

func TestSQLite_KeywordVolumeSurvivesDifficultyRefresh(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: "movers", Location: "United States", DifficultyScore: 35}))
	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: "movers", Location: "Miami, FL", DifficultyScore: 50}))
	require.NoError(t, st.SetKeywordVolume(ctx, "movers", 64))
	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: "movers", Location: "United States", DifficultyScore: 40}))

	kws, err := st.ListKeywords(ctx, KeywordFilter{OrderBy: OrderByDifficulty})
	require.NoError(t, err)
	require.Len(t, kws, 2)
	for _, kw := range kws {
		require.NotNil(t, kw.SearchVolume, kw.Location)
		assert.Equal(t, 64, *kw.SearchVolume, kw.Location)
	}
	assert.Equal(t, 40, kws[0].DifficultyScore)
}

func TestSQLite_RegionalInterest(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.AddRegionalInterest(ctx, []model.RegionalInterest{
		{Keyword: "movers", Country: "US", Region: "Florida", Interest: 100, Rank: 1},
		{Keyword: "movers", Country: "US", Region: "Texas", Interest: 80, Rank: 2},
	}))

	top, err := st.TopRegions(ctx, "movers", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Florida", top[0].Region)

	fl, err := st.RegionInterest(ctx, "Florida")
	require.NoError(t, err)
	require.NotNil(t, fl)
	assert.Equal(t, 100, fl.Interest)

	none, err := st.RegionInterest(ctx, "Ohio")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLite_VolumeHistory(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.AddVolumeSamples(ctx, []model.VolumeSample{
		{Keyword: "movers", Location: "US", DateRange: "today 1-m", TimelineDate: "May 1", Interest: 40, CallID: "old", CreatedAt: base},
		{Keyword: "movers", Location: "US", DateRange: "today 1-m", Interest: 40, AvgInterest: model.Float(40), CallID: "old", CreatedAt: base},
	}))
	require.NoError(t, st.AddVolumeSamples(ctx, []model.VolumeSample{
		{Keyword: "movers", Location: "US", DateRange: "today 1-m", TimelineDate: "Jun 1", Interest: 60, CallID: "new", CreatedAt: base.Add(time.Hour)},
		{Keyword: "movers", Location: "US", DateRange: "today 1-m", TimelineDate: "Jun 2", Interest: 70, CallID: "new", CreatedAt: base.Add(time.Hour)},
		{Keyword: "movers", Location: "US", DateRange: "today 1-m", Interest: 70, AvgInterest: model.Float(65), Trend: "rising", CallID: "new", CreatedAt: base.Add(time.Hour)},
	}))

	timeline, err := st.VolumeTimeline(ctx, "movers", "US", "today 1-m")
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "Jun 1", timeline[0].TimelineDate)
	assert.Equal(t, "Jun 2", timeline[1].TimelineDate)

	summaries, err := st.RecentVolumeSamples(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.InDelta(t, 65, *summaries[0].AvgInterest, 0.0001)
	assert.Equal(t, "rising", summaries[0].Trend)
}

// --- Append-only results ---

func TestSQLite_AppendOnlyResults(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.AddSearchResults(ctx, []model.SearchResult{{Keyword: "movers", Engine: "google", Position: 1, Title: "Acme"}}))
	require.NoError(t, st.AddContent(ctx, []model.ContentItem{
		{Kind: model.ContentNews, Query: "movers", Title: "Movers expand"},
		{Kind: model.ContentVideo, Query: "movers", Title: "Packing tips", Views: func() *int64 { v := int64(1200); return &v }()},
	}))
	require.NoError(t, st.AddProducts(ctx, []model.Product{
		{Query: "boxes", Engine: "google_shopping", Title: "Box kit", Price: model.Float(24.99)},
		{Query: "boxes", Engine: "google_shopping", Title: "No price"},
	}))
	require.NoError(t, st.AddJobs(ctx, []model.Job{{Query: "mover", Title: "Mover", Company: "Acme"}}))
	require.NoError(t, st.AddQuestions(ctx, []model.Question{{Keyword: "movers", Question: "How much do movers cost?"}}))
	require.NoError(t, st.AddRelatedSearches(ctx, []model.RelatedSearch{{Keyword: "movers", Related: "cheap movers"}}))
	require.NoError(t, st.AddSuggestions(ctx, []model.Suggestion{
		{Keyword: "movers", Suggestion: "movers near me", Relevance: 600},
		{Keyword: "movers", Suggestion: "movers miami", Relevance: 900},
	}))

	results, err := st.RecentSearchResults(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	news, err := st.RecentContent(ctx, model.ContentNews, 10)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Movers expand", news[0].Title)

	all, err := st.RecentContent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	priced, err := st.ListPricedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, "Box kit", priced[0].Title)

	jobs, err := st.RecentJobs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	questions, err := st.RecentQuestions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, questions, 1)

	related, err := st.RecentRelatedSearches(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, related, 1)

	suggestions, err := st.TopSuggestions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "movers miami", suggestions[0].Suggestion)
}

func TestSQLite_EmptyBatchesAreNoops(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.UpsertBusinesses(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, st.AddSearchResults(ctx, nil))
	assert.NoError(t, st.AddRegionalInterest(ctx, nil))
}
