package source

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// DefaultDateRanges are the periods a volume history covers, most recent
// first.
var DefaultDateRanges = []string{"today 1-m", "today 3-m", "today 12-m"}

// maxCompared is the most keywords the trends engine compares at once.
const maxCompared = 5

// TrendPoint is one timeline sample. Values holds one interest value per
// compared keyword.
type TrendPoint struct {
	Date      string    `json:"date"`
	Timestamp string    `json:"timestamp,omitempty"`
	Values    []float64 `json:"values"`
}

func (p TrendPoint) first() float64 {
	if len(p.Values) == 0 {
		return 0
	}
	return p.Values[0]
}

// TrendSeries is a normalized interest-over-time result.
type TrendSeries struct {
	Keyword       string       `json:"keyword"`
	Location      string       `json:"location"`
	DateRange     string       `json:"date_range"`
	Timeline      []TrendPoint `json:"interest_over_time"`
	RisingQueries []string     `json:"related_queries_rising,omitempty"`
	TopQueries    []string     `json:"related_queries_top,omitempty"`
}

// VolumeStats summarizes one period of interest values.
type VolumeStats struct {
	Avg        float64 `json:"avg_interest"`
	Max        float64 `json:"max_interest"`
	Min        float64 `json:"min_interest"`
	Current    float64 `json:"current_interest"`
	Trend      string  `json:"trend"`
	Volatility float64 `json:"volatility"`
}

// VolumePeriod is the history of one date range.
type VolumePeriod struct {
	DateRange  string       `json:"date_range"`
	Timeline   []TrendPoint `json:"timeline"`
	DataPoints int          `json:"data_points"`
	Stats      *VolumeStats `json:"statistics,omitempty"`
}

// PeriodComparison compares the average of the first two periods.
type PeriodComparison struct {
	ChangePercent float64 `json:"change_percent"`
	Direction     string  `json:"direction"`
	RecentAvg     float64 `json:"recent_avg"`
	OlderAvg      float64 `json:"older_avg"`
}

// VolumeHistory is a normalized multi-period volume history.
type VolumeHistory struct {
	Keyword    string            `json:"keyword"`
	Location   string            `json:"location"`
	Periods    int               `json:"periods_analyzed"`
	History    []VolumePeriod    `json:"historical_data"`
	Comparison *PeriodComparison `json:"comparison,omitempty"`
}

// KeywordStats summarizes one keyword of a comparison.
type KeywordStats struct {
	Avg        float64 `json:"avg_interest"`
	Max        float64 `json:"max_interest"`
	Min        float64 `json:"min_interest"`
	Current    float64 `json:"current_interest"`
	DataPoints int     `json:"data_points"`
}

// RankedKeyword is a comparison ranking entry.
type RankedKeyword struct {
	Keyword string  `json:"keyword"`
	Avg     float64 `json:"avg_interest"`
}

// KeywordComparison is a normalized multi-keyword comparison.
type KeywordComparison struct {
	Keywords  []string                `json:"keywords"`
	Location  string                  `json:"location"`
	DateRange string                  `json:"date_range"`
	Timeline  []TrendPoint            `json:"timeline"`
	Stats     map[string]KeywordStats `json:"keyword_statistics"`
	Ranking   []RankedKeyword         `json:"ranking"`
}

// RegionalInterestResult is a normalized interest-by-region breakdown,
// sorted by interest with 1-based ranks.
type RegionalInterestResult struct {
	Keyword    string                   `json:"keyword"`
	Country    string                   `json:"country"`
	Total      int                      `json:"total_regions"`
	TopRegions []model.RegionalInterest `json:"top_regions"`
	Regions    []model.RegionalInterest `json:"all_regions"`
}

type trendValue struct {
	Query          text   `json:"query"`
	Value          text   `json:"value"`
	ExtractedValue number `json:"extracted_value"`
}

type timelinePoint struct {
	Date      text             `json:"date"`
	Timestamp text             `json:"timestamp"`
	Values    list[trendValue] `json:"values"`
}

type trendsResponse struct {
	InterestOverTime opt[struct {
		TimelineData list[timelinePoint] `json:"timeline_data"`
	}] `json:"interest_over_time"`
	RelatedQueries opt[struct {
		Rising list[relatedQuery] `json:"rising"`
		Top    list[relatedQuery] `json:"top"`
	}] `json:"related_queries"`
	InterestByRegion list[struct {
		Geo            text   `json:"geo"`
		Location       text   `json:"location"`
		ExtractedValue number `json:"extracted_value"`
	}] `json:"interest_by_region"`
}

func (r trendsResponse) timeline() []TrendPoint {
	data := r.InterestOverTime.V.TimelineData
	out := make([]TrendPoint, 0, len(data))
	for _, p := range data {
		tp := TrendPoint{Date: p.Date.String(), Timestamp: p.Timestamp.String(), Values: make([]float64, len(p.Values))}
		for i, v := range p.Values {
			tp.Values[i] = v.ExtractedValue.or(0)
		}
		out = append(out, tp)
	}
	return out
}

func queries(in list[relatedQuery]) []string {
	var out []string
	for _, q := range in {
		if q.Query != "" {
			out = append(out, q.Query.String())
		}
	}
	return out
}

// statsOf summarizes values. It returns nil for an empty period.
func statsOf(values []float64) *VolumeStats {
	if len(values) == 0 {
		return nil
	}
	s := &VolumeStats{Max: values[0], Min: values[0], Current: values[len(values)-1], Trend: "falling"}
	var sum float64
	for _, v := range values {
		sum += v
		s.Max = math.Max(s.Max, v)
		s.Min = math.Min(s.Min, v)
	}
	s.Avg = sum / float64(len(values))
	s.Volatility = s.Max - s.Min
	if len(values) > 1 && values[len(values)-1] > values[0] {
		s.Trend = "rising"
	}
	return s
}

// comparePeriods compares the first period's average with the second's.
// It returns nil when there is no older baseline.
func comparePeriods(periods []VolumePeriod) *PeriodComparison {
	if len(periods) < 2 || periods[0].Stats == nil || periods[1].Stats == nil {
		return nil
	}
	recent, older := periods[0].Stats.Avg, periods[1].Stats.Avg
	if older <= 0 {
		return nil
	}
	change := (recent - older) / older * 100
	dir := "down"
	if change > 0 {
		dir = "up"
	}
	return &PeriodComparison{
		ChangePercent: round2(change),
		Direction:     dir,
		RecentAvg:     round2(recent),
		OlderAvg:      round2(older),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// splitKeywords parses a comma-separated keyword list, keeping at most
// maxCompared.
func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) > maxCompared {
		out = out[:maxCompared]
	}
	return out
}

func compareKeywords(keywords []string, timeline []TrendPoint) (map[string]KeywordStats, []RankedKeyword) {
	stats := make(map[string]KeywordStats, len(keywords))
	for i, kw := range keywords {
		var values []float64
		for _, p := range timeline {
			if i < len(p.Values) {
				values = append(values, p.Values[i])
			}
		}
		s := statsOf(values)
		if s == nil {
			continue
		}
		stats[kw] = KeywordStats{
			Avg:        round2(s.Avg),
			Max:        s.Max,
			Min:        s.Min,
			Current:    s.Current,
			DataPoints: len(values),
		}
	}

	ranking := make([]RankedKeyword, 0, len(stats))
	for _, kw := range keywords {
		if s, ok := stats[kw]; ok {
			ranking = append(ranking, RankedKeyword{Keyword: kw, Avg: s.Avg})
		}
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Avg > ranking[j].Avg })
	return stats, ranking
}

func trendParams(q, geo, date, dataType string) []string {
	return []string{"q", q, "data_type", dataType, "geo", geo, "date", date}
}

func registerTrends(r *Registry) {
	register(r, adapter[TrendSeries]{
		name:     "Search Trends",
		slug:     "search-trends",
		category: "keyword_research",
		def:      func(d Defaults) Query { return Query{Query: d.Term(), Location: d.TrendsGeo} },
		fetch: func(ctx context.Context, e env, q Query) (TrendSeries, error) {
			const dateRange = "today 3-m"
			resp, err := call[trendsResponse](ctx, e, "google_trends", params(trendParams(q.Query, q.Location, dateRange, "TIMESERIES")...))
			if err != nil {
				return TrendSeries{}, err
			}
			return TrendSeries{
				Keyword:       q.Query,
				Location:      q.Location,
				DateRange:     dateRange,
				Timeline:      resp.timeline(),
				RisingQueries: queries(resp.RelatedQueries.V.Rising),
				TopQueries:    queries(resp.RelatedQueries.V.Top),
			}, nil
		},
	})

	register(r, adapter[VolumeHistory]{
		name:     "Keyword Volume History",
		slug:     "keyword-volume-history",
		category: "keyword_research",
		def:      func(d Defaults) Query { return Query{Query: d.Keyword, Location: d.TrendsGeo} },
		fetch: func(ctx context.Context, e env, q Query) (VolumeHistory, error) {
			out := VolumeHistory{Keyword: q.Query, Location: q.Location}
			for _, dr := range DefaultDateRanges {
				resp, err := call[trendsResponse](ctx, e, "google_trends", params(trendParams(q.Query, q.Location, dr, "TIMESERIES")...))
				if err != nil {
					return VolumeHistory{}, err
				}
				timeline := resp.timeline()
				values := make([]float64, len(timeline))
				for i, p := range timeline {
					values[i] = p.first()
				}
				out.History = append(out.History, VolumePeriod{
					DateRange:  dr,
					Timeline:   timeline,
					DataPoints: len(timeline),
					Stats:      statsOf(values),
				})
			}
			out.Periods = len(out.History)
			out.Comparison = comparePeriods(out.History)
			return out, nil
		},
		persist: persistVolumeHistory,
	})

	register(r, adapter[KeywordComparison]{
		name:     "Keyword Comparison",
		slug:     "keyword-comparison",
		category: "keyword_research",
		def: func(d Defaults) Query {
			kws := []string{d.Keyword, d.Term()}
			return Query{Query: strings.Join(kws, ","), Location: d.TrendsGeo}
		},
		fetch: func(ctx context.Context, e env, q Query) (KeywordComparison, error) {
			const dateRange = "today 3-m"
			keywords := splitKeywords(q.Query)
			resp, err := call[trendsResponse](ctx, e, "google_trends",
				params(trendParams(strings.Join(keywords, ","), q.Location, dateRange, "TIMESERIES")...))
			if err != nil {
				return KeywordComparison{}, err
			}
			timeline := resp.timeline()
			stats, ranking := compareKeywords(keywords, timeline)
			return KeywordComparison{
				Keywords:  keywords,
				Location:  q.Location,
				DateRange: dateRange,
				Timeline:  timeline,
				Stats:     stats,
				Ranking:   ranking,
			}, nil
		},
	})

	register(r, adapter[RegionalInterestResult]{
		name:     "Regional Interest",
		slug:     "regional-interest",
		category: "keyword_research",
		def:      func(d Defaults) Query { return Query{Query: d.Term(), Location: "US"} },
		fetch: func(ctx context.Context, e env, q Query) (RegionalInterestResult, error) {
			resp, err := call[trendsResponse](ctx, e, "google_trends", params(trendParams(q.Query, q.Location, "today 12-m", "GEO_MAP_0")...))
			if err != nil {
				return RegionalInterestResult{}, err
			}
			regions := make([]model.RegionalInterest, 0, len(resp.InterestByRegion))
			for _, reg := range resp.InterestByRegion {
				regions = append(regions, model.RegionalInterest{
					Keyword:  q.Query,
					Country:  q.Location,
					Region:   reg.Location.String(),
					Interest: int(reg.ExtractedValue.or(0)),
				})
			}
			sort.SliceStable(regions, func(i, j int) bool { return regions[i].Interest > regions[j].Interest })
			for i := range regions {
				regions[i].Rank = i + 1
			}
			top := regions
			if len(top) > 10 {
				top = top[:10]
			}
			return RegionalInterestResult{
				Keyword:    q.Query,
				Country:    q.Location,
				Total:      len(regions),
				TopRegions: top,
				Regions:    regions,
			}, nil
		},
		persist: func(ctx context.Context, st store.Store, data RegionalInterestResult, m Meta) error {
			rows := make([]model.RegionalInterest, len(data.Regions))
			for i, reg := range data.Regions {
				reg.SessionID, reg.CallID = m.SessionID, m.CallID
				rows[i] = reg
			}
			return st.AddRegionalInterest(ctx, rows)
		},
	})
}

// persistVolumeHistory writes one summary sample per period followed by its
// timeline samples.
func persistVolumeHistory(ctx context.Context, st store.Store, data VolumeHistory, m Meta) error {
	var samples []model.VolumeSample
	for _, p := range data.History {
		if p.Stats != nil {
			avg, vol := p.Stats.Avg, p.Stats.Volatility
			samples = append(samples, model.VolumeSample{
				Keyword:     data.Keyword,
				Location:    data.Location,
				DateRange:   p.DateRange,
				Interest:    p.Stats.Current,
				AvgInterest: &avg,
				Trend:       p.Stats.Trend,
				Volatility:  &vol,
				SessionID:   m.SessionID,
				CallID:      m.CallID,
			})
		}
		for _, pt := range p.Timeline {
			if len(pt.Values) == 0 {
				continue
			}
			samples = append(samples, model.VolumeSample{
				Keyword:      data.Keyword,
				Location:     data.Location,
				DateRange:    p.DateRange,
				TimelineDate: pt.Date,
				Interest:     pt.first(),
				SessionID:    m.SessionID,
				CallID:       m.CallID,
			})
		}
	}
	if err := st.AddVolumeSamples(ctx, samples); err != nil {
		return err
	}
	if v, ok := data.SearchVolume(); ok {
		return st.SetKeywordVolume(ctx, data.Keyword, v)
	}
	return nil
}

// SearchVolume is the rounded average interest of the most recent period
// with statistics. The provider reports relative interest (0-100), not
// absolute search counts.
func (h VolumeHistory) SearchVolume() (int, bool) {
	for _, p := range h.History {
		if p.Stats != nil {
			return int(math.Round(p.Stats.Avg)), true
		}
	}
	return 0, false
}
