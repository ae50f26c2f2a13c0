package geo

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "geo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func listing(name string, platform model.Platform, lat, lng float64, rating float64, reviews int) model.Business {
	return model.Business{
		Name:      name,
		Platform:  platform,
		Latitude:  model.Float(lat),
		Longitude: model.Float(lng),
		Rating:    model.Float(rating),
		Reviews:   model.Int(reviews),
	}
}

func seed(t *testing.T, st *store.SQLiteStore, businesses ...model.Business) {
	t.Helper()
	_, err := st.UpsertBusinesses(context.Background(), businesses)
	require.NoError(t, err)
}

// fakeReader serves fixed listings in the given order.
type fakeReader struct {
	businesses []model.Business
	err        error
}

func (f fakeReader) ListBusinesses(context.Context, store.BusinessFilter) ([]model.Business, error) {
	return f.businesses, f.err
}

func (f fakeReader) ListKeywords(context.Context, store.KeywordFilter) ([]model.Keyword, error) {
	return nil, f.err
}

func (f fakeReader) RegionInterest(context.Context, string) (*model.RegionalInterest, error) {
	return nil, f.err
}

func (f fakeReader) TopRegions(context.Context, string, int) ([]model.RegionalInterest, error) {
	return nil, f.err
}

func TestEmptyStore_AllLayersSucceed(t *testing.T) {
	e := NewEngine(newTestStore(t))
	ctx := context.Background()

	points := e.Points(ctx)
	require.True(t, points.OK(), points.Error)
	assert.Equal(t, 0, points.Data.Total)
	assert.Empty(t, points.Data.Collection.Features)

	heat := e.Heatmap(ctx)
	require.True(t, heat.OK(), heat.Error)
	assert.Empty(t, heat.Data.Points)
	assert.Equal(t, HeatmapStats{}, heat.Data.Stats)

	density := e.Density(ctx)
	require.True(t, density.OK(), density.Error)
	for _, a := range density.Data.Areas {
		assert.Zero(t, a.Count, a.Name)
		assert.Zero(t, a.DensityScore, a.Name)
	}

	clusters := e.Clusters(ctx)
	require.True(t, clusters.OK(), clusters.Error)
	assert.Empty(t, clusters.Data.Clusters)
	assert.Equal(t, 0, clusters.Data.Total)

	b, err := json.Marshal(points)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"features":[]`)
}

func TestPoints(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		listing("Top Movers", model.PlatformMaps, 25.77, -80.19, 4.5, 1500),
		listing("Okay Movers", model.PlatformMaps, 25.80, -80.20, 3.5, 20),
		listing("Yelp Only", model.PlatformYelp, 25.78, -80.19, 5, 10),
		model.Business{Name: "Nowhere Movers", Platform: model.PlatformMaps, Rating: model.Float(4.9)},
	)

	out := NewEngine(st).Points(context.Background())
	require.True(t, out.OK(), out.Error)
	require.Equal(t, 2, out.Data.Total)

	first := out.Data.Collection.Features[0]
	assert.Equal(t, "Top Movers", first.Properties["name"])
	assert.Equal(t, ColorGreen, first.Properties["marker-color"])
	assert.Equal(t, SizeLarge, first.Properties["marker-size"])

	pt, ok := first.Geometry.(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, -80.19, pt.X(), 1e-9, "longitude first")
	assert.InDelta(t, 25.77, pt.Y(), 1e-9)

	second := out.Data.Collection.Features[1]
	assert.Equal(t, ColorOrange, second.Properties["marker-color"])
	assert.Equal(t, SizeSmall, second.Properties["marker-size"])

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"FeatureCollection"`)
	assert.Contains(t, string(b), `"marker-color":"#10b981"`)
}

func TestHeatmap_ParallelWeightedLayers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seed(t, st,
		listing("Maps Mover", model.PlatformMaps, 25.77, -80.19, 5, 1000),
		listing("Yelp Mover", model.PlatformYelp, 25.78, -80.19, 5, 250),
	)
	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{
		Keyword: "movers miami", Location: "Miami, FL", DifficultyScore: 20,
		DifficultyLevel: model.DifficultyEasy, SearchVolume: model.Int(5000),
	}))
	require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{
		Keyword: "movers austin", Location: "Austin, TX", DifficultyScore: 10, SearchVolume: model.Int(9000),
	}))
	require.NoError(t, st.AddRegionalInterest(ctx, []model.RegionalInterest{
		{Keyword: "movers", Country: "US", Region: "Florida", Interest: 80, Rank: 1},
	}))

	out := NewEngine(st).Heatmap(ctx)
	require.True(t, out.OK(), out.Error)
	h := out.Data

	s := h.Stats
	assert.Equal(t, 1, s.BusinessPoints)
	assert.Equal(t, 1, s.SecondaryPoints)
	assert.Equal(t, 1, s.SearchPoints, "keywords outside the market are ignored")
	assert.Equal(t, 8, s.RegionalPoints)
	assert.Equal(t, 11, h.Total)

	byType := map[string]HeatPoint{}
	for _, p := range h.Points {
		byType[p.Type] = p
	}
	assert.InDelta(t, 1.0, byType[LayerBusinessRating].Intensity, 1e-9)
	assert.Equal(t, WeightBusinessRating, byType[LayerBusinessRating].Weight)
	assert.InDelta(t, 0.85, byType[LayerSecondaryReviews].Intensity, 1e-9)
	assert.InDelta(t, 0.4, byType[LayerSearchVolume].Intensity, 1e-9)
	assert.Equal(t, "Downtown Miami", byType[LayerSearchVolume].Area)
	assert.InDelta(t, 0.4, byType[LayerRegionalInterest].Intensity, 1e-9)

	assert.InDelta(t, 5.45, s.TotalIntensity, 1e-9)
	assert.InDelta(t, 5.45/11, s.AverageIntensity, 1e-9)
	assert.InDelta(t, 1.0, s.MaxIntensity, 1e-9)
}

func TestHeatmap_KeywordsRoundRobin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	for _, kw := range []string{"a", "b", "c"} {
		require.NoError(t, st.UpsertKeyword(ctx, model.Keyword{Keyword: kw, Location: "Miami, FL"}))
	}
	areas := []Area{{Name: "North", Lat: 1, Lng: 1, Radius: 1}, {Name: "South", Lat: -1, Lng: -1, Radius: 1}}

	out := NewEngine(st, WithAreas(areas), WithRegion("")).Heatmap(ctx)
	require.True(t, out.OK(), out.Error)
	require.Len(t, out.Data.Points, 3)
	assert.Equal(t, "North", out.Data.Points[0].Area)
	assert.Equal(t, "South", out.Data.Points[1].Area)
	assert.Equal(t, "North", out.Data.Points[2].Area)
	assert.Zero(t, out.Data.Points[0].Intensity, "no volume means no intensity")
}

func TestDensity_BoundaryIncluded(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		listing("Center", model.PlatformMaps, 25.0, -80.0, 4.0, 100),
		listing("On Edge", model.PlatformMaps, 25.5, -80.0, 5.0, 50),
		listing("Just Outside", model.PlatformMaps, 25.5001, -80.0, 1.0, 999),
		model.Business{Name: "Unrated", Platform: model.PlatformMaps,
			Latitude: model.Float(25.1), Longitude: model.Float(-80.0), Reviews: model.Int(5)},
	)
	area := Area{Name: "Test", Lat: 25.0, Lng: -80.0, Radius: 0.5}

	out := NewEngine(st, WithAreas([]Area{area})).Density(context.Background())
	require.True(t, out.OK(), out.Error)
	require.Len(t, out.Data.Areas, 1)

	d := out.Data.Areas[0]
	assert.Equal(t, 3, d.Count)
	assert.Equal(t, 4.5, d.AvgRating, "mean over rated listings only")
	assert.Equal(t, 155, d.TotalReviews)
	assert.Equal(t, 13.5, d.DensityScore)
	assert.Equal(t, [2]float64{-80.0, 25.0}, d.Coordinates)
}

func TestDensity_EmptyAreaReported(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, listing("Far Away", model.PlatformMaps, 40, -70, 4, 1))

	out := NewEngine(st).Density(context.Background())
	require.True(t, out.OK(), out.Error)
	assert.Equal(t, 8, out.Data.Total)
	for _, a := range out.Data.Areas {
		assert.Zero(t, a.Count)
		assert.Zero(t, a.AvgRating)
	}
}

func TestClusters_OneClusterRegardlessOfOrder(t *testing.T) {
	a := listing("A", model.PlatformMaps, 25.770, -80.190, 4.0, 300)
	b := listing("B", model.PlatformMaps, 25.775, -80.195, 5.0, 200)
	c := listing("C", model.PlatformMaps, 25.780, -80.185, 3.0, 100)
	lone := listing("Lone", model.PlatformMaps, 26.5, -81.0, 4.0, 5000)

	orders := [][]model.Business{
		{a, b, c, lone},
		{c, lone, b, a},
		{lone, b, a, c},
	}
	for _, businesses := range orders {
		out := NewEngine(fakeReader{businesses: businesses}).Clusters(context.Background())
		require.True(t, out.OK(), out.Error)
		require.Equal(t, 1, out.Data.Total)

		cl := out.Data.Clusters[0]
		assert.Equal(t, 3, cl.Size)
		assert.Equal(t, "A", cl.Members[0].Name, "seed has the most reviews")
		assert.Equal(t, 600, cl.TotalReviews)
		assert.Equal(t, 4.0, cl.AvgRating)
		assert.InDelta(t, -80.19, cl.Center[0], 1e-9)
		assert.InDelta(t, 25.775, cl.Center[1], 1e-9)
		assert.Len(t, out.Data.Collection.Features, 1)
	}
}

func TestClusters_DistanceMeasuredFromSeed(t *testing.T) {
	// B is within range of both, but C is only within range of B.
	a := listing("A", model.PlatformMaps, 25.00, -80.0, 4, 30)
	b := listing("B", model.PlatformMaps, 25.015, -80.0, 4, 20)
	c := listing("C", model.PlatformMaps, 25.03, -80.0, 4, 10)

	out := NewEngine(fakeReader{businesses: []model.Business{a, b, c}}).Clusters(context.Background())
	require.True(t, out.OK(), out.Error)
	require.Equal(t, 1, out.Data.Total)
	assert.Equal(t, 2, out.Data.Clusters[0].Size)
}

func TestClusters_Threshold(t *testing.T) {
	a := listing("A", model.PlatformMaps, 25.00, -80.0, 4, 30)
	b := listing("B", model.PlatformMaps, 25.05, -80.0, 4, 20)

	reader := fakeReader{businesses: []model.Business{a, b}}
	out := NewEngine(reader).Clusters(context.Background())
	require.True(t, out.OK())
	assert.Equal(t, 0, out.Data.Total)

	out = NewEngine(reader, WithClusterThreshold(0.1)).Clusters(context.Background())
	require.True(t, out.OK())
	assert.Equal(t, 1, out.Data.Total)
}

func TestRegionalMap(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.AddRegionalInterest(ctx, []model.RegionalInterest{
		{Keyword: "movers", Country: "US", Region: "Florida", Interest: 90, Rank: 1},
		{Keyword: "movers", Country: "US", Region: "Texas", Interest: 50, Rank: 2},
		{Keyword: "movers", Country: "US", Region: "Atlantis", Interest: 45, Rank: 3},
	}))

	out := NewEngine(st).RegionalMap(ctx)
	require.True(t, out.OK(), out.Error)
	require.Equal(t, 2, out.Data.Total, "regions without a map position are skipped")

	fl := out.Data.Collection.Features[0]
	assert.Equal(t, "Florida", fl.Properties["region"])
	assert.Equal(t, ColorGreen, fl.Properties["marker-color"])
	assert.Equal(t, SizeLarge, fl.Properties["marker-size"])
	pt := fl.Geometry.(*geom.Point)
	assert.InDelta(t, -80.1918, pt.X(), 1e-9)

	tx := out.Data.Collection.Features[1]
	assert.Equal(t, ColorOrange, tx.Properties["marker-color"])
	assert.Equal(t, SizeSmall, tx.Properties["marker-size"])
}

func TestStoreError_EveryLayerFails(t *testing.T) {
	e := NewEngine(fakeReader{err: errors.New("database is locked")})
	ctx := context.Background()

	points := e.Points(ctx)
	assert.Equal(t, model.StatusError, points.Status)
	assert.Contains(t, points.Error, "database is locked")
	assert.Nil(t, points.Data)

	assert.False(t, e.Heatmap(ctx).OK())
	assert.False(t, e.Density(ctx).OK())
	assert.False(t, e.Clusters(ctx).OK())
	assert.False(t, e.RegionalMap(ctx).OK())

	all := e.MapData(ctx)
	assert.Equal(t, model.StatusSuccess, all.Status)
	assert.False(t, all.Points.OK())
	assert.False(t, all.Clusters.OK())
}

func TestMapData(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		listing("A", model.PlatformMaps, 25.770, -80.190, 4.8, 300),
		listing("B", model.PlatformMaps, 25.775, -80.195, 4.2, 200),
	)
	center := Center{Lat: 25.7617, Lng: -80.1918, Zoom: 12}

	md := NewEngine(st, WithCenter(center)).MapData(context.Background())
	assert.Equal(t, center, md.Center)
	require.True(t, md.Points.OK())
	assert.Equal(t, 2, md.Points.Data.Total)
	require.True(t, md.Clusters.OK())
	assert.Equal(t, 1, md.Clusters.Data.Total)
	assert.True(t, md.Heatmap.OK())
	assert.True(t, md.Density.OK())
	assert.True(t, md.Regional.OK())
	assert.False(t, md.Timestamp.IsZero())
}
