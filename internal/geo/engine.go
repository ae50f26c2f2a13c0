package geo

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// Reader is the part of the store the engine reads.
type Reader interface {
	ListBusinesses(ctx context.Context, filter store.BusinessFilter) ([]model.Business, error)
	ListKeywords(ctx context.Context, filter store.KeywordFilter) ([]model.Keyword, error)
	RegionInterest(ctx context.Context, region string) (*model.RegionalInterest, error)
	TopRegions(ctx context.Context, keyword string, limit int) ([]model.RegionalInterest, error)
}

const (
	// DefaultClusterThreshold is about 2 km at Miami's latitude.
	DefaultClusterThreshold = 0.02

	heatmapKeywordLimit   = 20
	heatmapSecondaryLimit = 100
	regionalMapLimit      = 20
)

// Layer types of heatmap points and their declared weights.
const (
	LayerBusinessRating   = "business_rating"
	LayerSecondaryReviews = "yelp_reviews"
	LayerSearchVolume     = "search_volume"
	LayerRegionalInterest = "regional_interest"

	WeightBusinessRating   = 0.4
	WeightSecondaryReviews = 0.3
	WeightSearchVolume     = 0.2
	WeightRegionalInterest = 0.1
)

// Engine computes map layers from the store. Every method is read-only and
// all-or-nothing: a store error yields an error outcome and no partial data.
type Engine struct {
	reader           Reader
	center           Center
	areas            []Area
	clusterThreshold float64
	region           string
	keywordLocations []string
	primary          model.Platform
	secondary        model.Platform
	now              func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCenter sets the map viewport reported with every layer.
func WithCenter(c Center) Option {
	return func(e *Engine) { e.center = c }
}

// WithAreas replaces the default Miami areas.
func WithAreas(areas []Area) Option {
	return func(e *Engine) {
		if len(areas) > 0 {
			e.areas = areas
		}
	}
}

// WithClusterThreshold sets the clustering distance in degrees.
func WithClusterThreshold(d float64) Option {
	return func(e *Engine) {
		if d > 0 {
			e.clusterThreshold = d
		}
	}
}

// WithRegion sets the region whose interest overlays the heatmap.
func WithRegion(region string) Option {
	return func(e *Engine) { e.region = region }
}

// WithKeywordLocations sets the location substrings that select keywords
// for the heatmap.
func WithKeywordLocations(locs []string) Option {
	return func(e *Engine) { e.keywordLocations = locs }
}

// NewEngine creates an engine over r.
func NewEngine(r Reader, opts ...Option) *Engine {
	e := &Engine{
		reader:           r,
		center:           MiamiCenter,
		areas:            DefaultAreas(),
		clusterThreshold: DefaultClusterThreshold,
		region:           "Florida",
		keywordLocations: []string{"Miami", "FL"},
		primary:          model.PlatformMaps,
		secondary:        model.PlatformYelp,
		now:              time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Areas returns the areas density is computed over.
func (e *Engine) Areas() []Area { return e.areas }

func fail[T any](op string, err error) model.Outcome[T] {
	err = eris.Wrapf(err, "geo: %s", op)
	zap.L().Warn("map layer failed", zap.String("layer", op), zap.Error(err))
	return model.Fail[T](err)
}

// distance is Euclidean distance in degree space. It is only meaningful over
// a single metro area.
func distance(lat1, lng1, lat2, lng2 float64) float64 {
	return math.Hypot(lat1-lat2, lng1-lng2)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func pointFeature(lat, lng float64, props map[string]any) *geojson.Feature {
	return &geojson.Feature{
		Geometry:   geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326),
		Properties: props,
	}
}

func newCollection() *geojson.FeatureCollection {
	return &geojson.FeatureCollection{Features: []*geojson.Feature{}}
}

// PointLayer is every located listing of the primary platform.
type PointLayer struct {
	Total      int                        `json:"total_businesses"`
	Center     Center                     `json:"center"`
	Collection *geojson.FeatureCollection `json:"geojson"`
}

// Points emits one GeoJSON point per located listing, colored by rating and
// sized by review count.
func (e *Engine) Points(ctx context.Context) model.Outcome[PointLayer] {
	businesses, err := e.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms:       []model.Platform{e.primary},
		WithCoordinates: true,
		OrderByReviews:  true,
	})
	if err != nil {
		return fail[PointLayer]("points", err)
	}

	fc := newCollection()
	for _, b := range businesses {
		if !b.HasCoordinates() {
			continue
		}
		fc.Features = append(fc.Features, pointFeature(*b.Latitude, *b.Longitude, map[string]any{
			"name":         b.Name,
			"rating":       b.Rating,
			"reviews":      b.Reviews,
			"phone":        b.Phone,
			"address":      b.Address,
			"hours":        b.Hours,
			"website":      b.Website,
			"marker-color": RatingColor(b.Rating),
			"marker-size":  ReviewSize(b.Reviews),
		}))
	}
	return model.Succeed(PointLayer{Total: len(fc.Features), Center: e.center, Collection: fc})
}

// HeatPoint is one point of a heatmap layer. Coordinates are [lng, lat].
// Weight is the layer's declared weight and is not applied to Intensity.
type HeatPoint struct {
	Coordinates  [2]float64 `json:"coordinates"`
	Intensity    float64    `json:"intensity"`
	Type         string     `json:"type"`
	Weight       float64    `json:"weight"`
	Name         string     `json:"name,omitempty"`
	Rating       *float64   `json:"rating,omitempty"`
	Reviews      int        `json:"reviews,omitempty"`
	Keyword      string     `json:"keyword,omitempty"`
	SearchVolume int        `json:"search_volume,omitempty"`
	Difficulty   int        `json:"difficulty,omitempty"`
	Area         string     `json:"area,omitempty"`
	Interest     int        `json:"interest_value,omitempty"`
}

// HeatmapStats summarizes every layer of a heatmap.
type HeatmapStats struct {
	TotalIntensity   float64 `json:"total_intensity"`
	AverageIntensity float64 `json:"average_intensity"`
	MaxIntensity     float64 `json:"max_intensity"`
	BusinessPoints   int     `json:"business_points"`
	SecondaryPoints  int     `json:"yelp_points"`
	SearchPoints     int     `json:"search_points"`
	RegionalPoints   int     `json:"regional_points"`
}

// Heatmap is the four weighted layers in one point set.
type Heatmap struct {
	Points []HeatPoint  `json:"heatmap_data"`
	Total  int          `json:"total_points"`
	Stats  HeatmapStats `json:"statistics"`
	Center Center       `json:"center"`
}

// Heatmap combines business ratings, secondary-platform reviews, keyword
// volume and regional interest into parallel weighted layers.
func (e *Engine) Heatmap(ctx context.Context) model.Outcome[Heatmap] {
	rated, err := e.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms:       []model.Platform{e.primary},
		WithCoordinates: true,
		RatedOnly:       true,
	})
	if err != nil {
		return fail[Heatmap]("heatmap businesses", err)
	}
	secondary, err := e.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms:       []model.Platform{e.secondary},
		WithCoordinates: true,
		RatedOnly:       true,
		Limit:           heatmapSecondaryLimit,
	})
	if err != nil {
		return fail[Heatmap]("heatmap secondary businesses", err)
	}
	keywords, err := e.reader.ListKeywords(ctx, store.KeywordFilter{
		LocationLike: e.keywordLocations,
		OrderBy:      store.OrderByVolume,
		Limit:        heatmapKeywordLimit,
	})
	if err != nil {
		return fail[Heatmap]("heatmap keywords", err)
	}
	var regional *model.RegionalInterest
	if e.region != "" {
		if regional, err = e.reader.RegionInterest(ctx, e.region); err != nil {
			return fail[Heatmap]("heatmap regional interest", err)
		}
	}

	var points []HeatPoint
	for _, b := range rated {
		if !b.HasCoordinates() || b.Rating == nil {
			continue
		}
		reviews := deref(b.Reviews)
		points = append(points, HeatPoint{
			Coordinates: [2]float64{*b.Longitude, *b.Latitude},
			Intensity:   0.6*(*b.Rating/5) + 0.4*math.Min(float64(reviews)/1000, 1),
			Type:        LayerBusinessRating,
			Weight:      WeightBusinessRating,
			Name:        b.Name,
			Rating:      b.Rating,
			Reviews:     reviews,
		})
	}
	for _, b := range secondary {
		if !b.HasCoordinates() || b.Rating == nil {
			continue
		}
		reviews := deref(b.Reviews)
		points = append(points, HeatPoint{
			Coordinates: [2]float64{*b.Longitude, *b.Latitude},
			Intensity:   0.7*(*b.Rating/5) + 0.3*math.Min(float64(reviews)/500, 1),
			Type:        LayerSecondaryReviews,
			Weight:      WeightSecondaryReviews,
			Name:        b.Name,
			Rating:      b.Rating,
			Reviews:     reviews,
		})
	}
	if len(e.areas) > 0 {
		for i, kw := range keywords {
			area := e.areas[i%len(e.areas)]
			volume := deref(kw.SearchVolume)
			intensity := math.Min(float64(volume)/10000, 1) * (1 - float64(kw.DifficultyScore)/100)
			points = append(points, HeatPoint{
				Coordinates:  [2]float64{area.Lng, area.Lat},
				Intensity:    math.Max(intensity, 0),
				Type:         LayerSearchVolume,
				Weight:       WeightSearchVolume,
				Keyword:      kw.Keyword,
				SearchVolume: volume,
				Difficulty:   kw.DifficultyScore,
				Area:         area.Name,
			})
		}
	}
	if regional != nil {
		for _, area := range e.areas {
			points = append(points, HeatPoint{
				Coordinates: [2]float64{area.Lng, area.Lat},
				Intensity:   float64(regional.Interest) / 100 * 0.5,
				Type:        LayerRegionalInterest,
				Weight:      WeightRegionalInterest,
				Area:        area.Name,
				Interest:    regional.Interest,
			})
		}
	}

	h := Heatmap{Points: points, Total: len(points), Center: e.center}
	if h.Points == nil {
		h.Points = []HeatPoint{}
	}
	for _, p := range points {
		h.Stats.TotalIntensity += p.Intensity
		h.Stats.MaxIntensity = math.Max(h.Stats.MaxIntensity, p.Intensity)
		switch p.Type {
		case LayerBusinessRating:
			h.Stats.BusinessPoints++
		case LayerSecondaryReviews:
			h.Stats.SecondaryPoints++
		case LayerSearchVolume:
			h.Stats.SearchPoints++
		case LayerRegionalInterest:
			h.Stats.RegionalPoints++
		}
	}
	if len(points) > 0 {
		h.Stats.AverageIntensity = h.Stats.TotalIntensity / float64(len(points))
	}
	return model.Succeed(h)
}

// AreaDensity is the listing density of one area.
type AreaDensity struct {
	Name         string     `json:"name"`
	Count        int        `json:"count"`
	AvgRating    float64    `json:"avg_rating"`
	TotalReviews int        `json:"total_reviews"`
	Coordinates  [2]float64 `json:"coordinates"`
	DensityScore float64    `json:"density_score"`
}

// DensityReport covers every configured area, including empty ones.
type DensityReport struct {
	Areas  []AreaDensity `json:"area_analysis"`
	Total  int           `json:"total_areas"`
	Center Center        `json:"center"`
}

// Density counts the located listings within each area's radius, boundary
// included, and scores each area as count times mean rating.
func (e *Engine) Density(ctx context.Context) model.Outcome[DensityReport] {
	businesses, err := e.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms:       []model.Platform{e.primary},
		WithCoordinates: true,
	})
	if err != nil {
		return fail[DensityReport]("density", err)
	}

	report := DensityReport{Areas: make([]AreaDensity, 0, len(e.areas)), Center: e.center}
	for _, area := range e.areas {
		d := AreaDensity{Name: area.Name, Coordinates: [2]float64{area.Lng, area.Lat}}
		var ratingSum float64
		var rated int
		for _, b := range businesses {
			if !b.HasCoordinates() || distance(area.Lat, area.Lng, *b.Latitude, *b.Longitude) > area.Radius {
				continue
			}
			d.Count++
			d.TotalReviews += deref(b.Reviews)
			if b.Rating != nil {
				ratingSum += *b.Rating
				rated++
			}
		}
		if rated > 0 {
			avg := ratingSum / float64(rated)
			d.AvgRating = round2(avg)
			d.DensityScore = round2(float64(d.Count) * avg)
		}
		report.Areas = append(report.Areas, d)
	}
	report.Total = len(report.Areas)
	return model.Succeed(report)
}

// ClusterMember is a listing inside a cluster.
type ClusterMember struct {
	Name    string   `json:"name"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Rating  *float64 `json:"rating,omitempty"`
	Reviews *int     `json:"reviews,omitempty"`
	Phone   string   `json:"phone,omitempty"`
}

// Cluster is a group of nearby competitors. Center is the [lng, lat] mean
// of its members.
type Cluster struct {
	Center       [2]float64      `json:"center"`
	Members      []ClusterMember `json:"businesses"`
	Size         int             `json:"size"`
	AvgRating    float64         `json:"avg_rating"`
	TotalReviews int             `json:"total_reviews"`
}

// ClusterReport holds clusters of two or more listings.
type ClusterReport struct {
	Clusters   []Cluster                  `json:"clusters"`
	Total      int                        `json:"total_clusters"`
	Center     Center                     `json:"center"`
	Collection *geojson.FeatureCollection `json:"geojson"`
}

// Clusters groups located listings greedily: listings are taken in order of
// descending reviews, each unassigned one seeds a cluster, and every
// unassigned listing within the threshold of the seed joins it. Single
// listings are dropped. The scan is quadratic and suits the tens to low
// hundreds of listings one market holds.
func (e *Engine) Clusters(ctx context.Context) model.Outcome[ClusterReport] {
	businesses, err := e.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms:       []model.Platform{e.primary},
		WithCoordinates: true,
	})
	if err != nil {
		return fail[ClusterReport]("clusters", err)
	}

	located := make([]model.Business, 0, len(businesses))
	for _, b := range businesses {
		if b.HasCoordinates() {
			located = append(located, b)
		}
	}
	sort.SliceStable(located, func(i, j int) bool {
		ri, rj := deref(located[i].Reviews), deref(located[j].Reviews)
		if ri != rj {
			return ri > rj
		}
		return located[i].Name < located[j].Name
	})

	report := ClusterReport{Clusters: []Cluster{}, Center: e.center, Collection: newCollection()}
	used := make([]bool, len(located))
	for i, seed := range located {
		if used[i] {
			continue
		}
		used[i] = true
		members := []model.Business{seed}
		for j := i + 1; j < len(located); j++ {
			if used[j] {
				continue
			}
			other := located[j]
			if distance(*seed.Latitude, *seed.Longitude, *other.Latitude, *other.Longitude) <= e.clusterThreshold {
				members = append(members, other)
				used[j] = true
			}
		}
		if len(members) < 2 {
			continue
		}
		c := newCluster(members)
		report.Clusters = append(report.Clusters, c)
		report.Collection.Features = append(report.Collection.Features, pointFeature(c.Center[1], c.Center[0], map[string]any{
			"size":          c.Size,
			"avg_rating":    c.AvgRating,
			"total_reviews": c.TotalReviews,
		}))
	}
	report.Total = len(report.Clusters)
	return model.Succeed(report)
}

func newCluster(members []model.Business) Cluster {
	c := Cluster{Members: make([]ClusterMember, 0, len(members)), Size: len(members)}
	var latSum, lngSum, ratingSum float64
	var rated int
	for _, b := range members {
		latSum += *b.Latitude
		lngSum += *b.Longitude
		c.TotalReviews += deref(b.Reviews)
		if b.Rating != nil {
			ratingSum += *b.Rating
			rated++
		}
		c.Members = append(c.Members, ClusterMember{
			Name:    b.Name,
			Lat:     *b.Latitude,
			Lng:     *b.Longitude,
			Rating:  b.Rating,
			Reviews: b.Reviews,
			Phone:   b.Phone,
		})
	}
	n := float64(len(members))
	c.Center = [2]float64{lngSum / n, latSum / n}
	if rated > 0 {
		c.AvgRating = round2(ratingSum / float64(rated))
	}
	return c
}

// RegionalMap places the top-ranked regions with a known map position.
type RegionalMap struct {
	Total      int                        `json:"total_regions"`
	Center     Center                     `json:"center"`
	Collection *geojson.FeatureCollection `json:"geojson"`
}

// RegionalMap emits one point per ranked region, keeping the best-ranked
// entry when a region was recorded more than once.
func (e *Engine) RegionalMap(ctx context.Context) model.Outcome[RegionalMap] {
	regions, err := e.reader.TopRegions(ctx, "", regionalMapLimit)
	if err != nil {
		return fail[RegionalMap]("regional map", err)
	}

	fc := newCollection()
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		pos, ok := stateCenters[r.Region]
		if !ok || seen[r.Region] {
			continue
		}
		seen[r.Region] = true
		fc.Features = append(fc.Features, pointFeature(pos[0], pos[1], map[string]any{
			"region":       r.Region,
			"interest":     r.Interest,
			"rank":         r.Rank,
			"marker-color": InterestColor(r.Interest),
			"marker-size":  InterestSize(r.Interest),
		}))
	}
	return model.Succeed(RegionalMap{Total: len(fc.Features), Center: e.center, Collection: fc})
}

// MapData is every layer at once. Each layer carries its own status.
type MapData struct {
	Status    model.Status                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Center    Center                       `json:"center"`
	Points    model.Outcome[PointLayer]    `json:"business_locations"`
	Heatmap   model.Outcome[Heatmap]       `json:"rating_heatmap"`
	Regional  model.Outcome[RegionalMap]   `json:"regional_interest"`
	Density   model.Outcome[DensityReport] `json:"market_density"`
	Clusters  model.Outcome[ClusterReport] `json:"competitor_clusters"`
}

// MapData computes all five layers.
func (e *Engine) MapData(ctx context.Context) MapData {
	return MapData{
		Status:    model.StatusSuccess,
		Timestamp: e.now().UTC(),
		Center:    e.center,
		Points:    e.Points(ctx),
		Heatmap:   e.Heatmap(ctx),
		Regional:  e.RegionalMap(ctx),
		Density:   e.Density(ctx),
		Clusters:  e.Clusters(ctx),
	}
}
