// Package analytics derives marketing insights from persisted provider
// results. Every analysis is a read-only query over the store and reports
// its own success or failure.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// Reader is the part of the store the analyses read.
type Reader interface {
	ListBusinesses(ctx context.Context, filter store.BusinessFilter) ([]model.Business, error)
	ListKeywords(ctx context.Context, filter store.KeywordFilter) ([]model.Keyword, error)
	RecentContent(ctx context.Context, kind model.ContentKind, limit int) ([]model.ContentItem, error)
	RecentQuestions(ctx context.Context, limit int) ([]model.Question, error)
	RecentRelatedSearches(ctx context.Context, limit int) ([]model.RelatedSearch, error)
	TopSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error)
	ListPricedProducts(ctx context.Context) ([]model.Product, error)
	RecentVolumeSamples(ctx context.Context, limit int) ([]model.VolumeSample, error)
	TopRegions(ctx context.Context, keyword string, limit int) ([]model.RegionalInterest, error)
}

// Analyzer runs the marketing analyses.
type Analyzer struct {
	reader Reader
	now    func() time.Time
}

// New creates an Analyzer over r.
func New(r Reader) *Analyzer {
	return &Analyzer{reader: r, now: time.Now}
}

func fail[T any](analysis string, err error) model.Outcome[T] {
	err = eris.Wrapf(err, "analytics: %s", analysis)
	zap.L().Warn("analysis failed", zap.String("analysis", analysis), zap.Error(err))
	return model.Fail[T](err)
}

// ratio returns part/whole, or 0 when whole is 0.
func ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Summary is every analysis at once. Each section carries its own status.
type Summary struct {
	Status      model.Status                           `json:"status"`
	Timestamp   time.Time                              `json:"timestamp"`
	Penetration model.Outcome[MarketPenetration]       `json:"market_penetration"`
	Competitive model.Outcome[CompetitiveIntelligence] `json:"competitive_intelligence"`
	Content     model.Outcome[ContentStrategy]         `json:"content_strategy"`
	Pricing     model.Outcome[PricingIntelligence]     `json:"pricing_intelligence"`
	Trends      model.Outcome[TrendAnalysis]           `json:"trend_analysis"`
}

// Summary runs all five analyses. A failing analysis does not fail the
// others.
func (a *Analyzer) Summary(ctx context.Context) Summary {
	return Summary{
		Status:      model.StatusSuccess,
		Timestamp:   a.now().UTC(),
		Penetration: a.MarketPenetration(ctx),
		Competitive: a.CompetitiveIntelligence(ctx),
		Content:     a.ContentStrategy(ctx),
		Pricing:     a.PricingIntelligence(ctx),
		Trends:      a.TrendAnalysis(ctx),
	}
}

// --- Market penetration ---

// PlatformStats summarizes the top listings of one platform.
type PlatformStats struct {
	Businesses   int     `json:"businesses"`
	TotalReviews int     `json:"total_reviews"`
	AvgRating    float64 `json:"avg_rating"`
	TopBusiness  string  `json:"top_business"`
}

// CrossPlatform compares the names listed on both platforms.
type CrossPlatform struct {
	OnBoth        int     `json:"businesses_on_both"`
	PrimaryOnly   int     `json:"google_only"`
	SecondaryOnly int     `json:"yelp_only"`
	CoveragePct   float64 `json:"market_coverage"`
}

// MarketPenetration compares the top listings of Google Maps and Yelp.
type MarketPenetration struct {
	Maps          PlatformStats `json:"google_maps"`
	Yelp          PlatformStats `json:"yelp"`
	CrossPlatform CrossPlatform `json:"cross_platform_analysis"`
	Insights      []string      `json:"insights"`
}

const penetrationTop = 10

// MarketPenetration compares the ten most-reviewed listings of each
// platform and matches them by case-folded name.
func (a *Analyzer) MarketPenetration(ctx context.Context) model.Outcome[MarketPenetration] {
	maps, err := a.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms: []model.Platform{model.PlatformMaps}, OrderByReviews: true, Limit: penetrationTop,
	})
	if err != nil {
		return fail[MarketPenetration]("market penetration", err)
	}
	yelp, err := a.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms: []model.Platform{model.PlatformYelp}, OrderByReviews: true, Limit: penetrationTop,
	})
	if err != nil {
		return fail[MarketPenetration]("market penetration", err)
	}

	mapsNames, yelpNames := foldedNames(maps), foldedNames(yelp)
	var both int
	for n := range mapsNames {
		if yelpNames[n] {
			both++
		}
	}
	cross := CrossPlatform{
		OnBoth:        both,
		PrimaryOnly:   len(mapsNames) - both,
		SecondaryOnly: len(yelpNames) - both,
		CoveragePct:   round(ratio(float64(both), float64(max(len(mapsNames), len(yelpNames))))*100, 1),
	}

	out := MarketPenetration{
		Maps:          platformStats(maps),
		Yelp:          platformStats(yelp),
		CrossPlatform: cross,
	}
	leaderReviews := 0
	if len(maps) > 0 {
		leaderReviews = maps[0].ReviewCount()
	}
	out.Insights = []string{
		fmt.Sprintf("Market leader: %s with %d reviews", out.Maps.TopBusiness, leaderReviews),
		fmt.Sprintf("Cross-platform presence: %d businesses on both Google and Yelp", both),
		fmt.Sprintf("Market coverage: %.1f%% of businesses on both platforms", cross.CoveragePct),
	}
	return model.Succeed(out)
}

// foldedNames returns the case-folded, trimmed names of businesses.
func foldedNames(businesses []model.Business) map[string]bool {
	fold := cases.Fold()
	out := make(map[string]bool, len(businesses))
	for _, b := range businesses {
		out[fold.String(strings.TrimSpace(b.Name))] = true
	}
	return out
}

func platformStats(businesses []model.Business) PlatformStats {
	s := PlatformStats{Businesses: len(businesses), TopBusiness: "N/A"}
	var ratingSum float64
	var rated int
	for _, b := range businesses {
		s.TotalReviews += b.ReviewCount()
		if b.Rating != nil {
			ratingSum += *b.Rating
			rated++
		}
	}
	s.AvgRating = round(ratio(ratingSum, float64(rated)), 2)
	if len(businesses) > 0 {
		s.TopBusiness = businesses[0].Name
	}
	return s
}

// --- Competitive intelligence ---

// Competitor is a heavily reviewed listing and its share of the reviews of
// the top competitors.
type Competitor struct {
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	Reviews     int      `json:"reviews"`
	Phone       string   `json:"phone,omitempty"`
	MarketShare float64  `json:"market_share"`
}

// KeywordOpportunity is a keyword ranked by how easy it is to win.
type KeywordOpportunity struct {
	Keyword        string `json:"keyword"`
	Difficulty     int    `json:"difficulty"`
	OrganicResults int    `json:"organic_results"`
	PaidAds        int    `json:"paid_ads"`
	Opportunity    string `json:"opportunity_level"`
}

// NewsItem is a recent industry news mention.
type NewsItem struct {
	Title     string `json:"title"`
	Source    string `json:"source,omitempty"`
	Published string `json:"date,omitempty"`
}

// CompetitiveIntelligence ranks competitors, keyword opportunities and news.
type CompetitiveIntelligence struct {
	Competitors []Competitor         `json:"top_competitors"`
	Keywords    []KeywordOpportunity `json:"keyword_opportunities"`
	News        []NewsItem           `json:"recent_news"`
	Insights    []string             `json:"insights"`
}

const (
	competitorTop        = 5
	competitorMinReviews = 100
)

// OpportunityLevel is High under 30 difficulty, Medium under 60, else Low.
func OpportunityLevel(difficulty int) string {
	switch {
	case difficulty < 30:
		return "High"
	case difficulty < 60:
		return "Medium"
	default:
		return "Low"
	}
}

// CompetitiveIntelligence reports the five most-reviewed Maps competitors
// with more than 100 reviews, the five easiest keywords and the five latest
// news items.
func (a *Analyzer) CompetitiveIntelligence(ctx context.Context) model.Outcome[CompetitiveIntelligence] {
	top, err := a.reader.ListBusinesses(ctx, store.BusinessFilter{
		Platforms:      []model.Platform{model.PlatformMaps},
		MinReviews:     competitorMinReviews,
		OrderByReviews: true,
		Limit:          competitorTop,
	})
	if err != nil {
		return fail[CompetitiveIntelligence]("competitive intelligence", err)
	}
	keywords, err := a.reader.ListKeywords(ctx, store.KeywordFilter{OrderBy: store.OrderByDifficulty, Limit: competitorTop})
	if err != nil {
		return fail[CompetitiveIntelligence]("competitive intelligence", err)
	}
	news, err := a.reader.RecentContent(ctx, model.ContentNews, competitorTop)
	if err != nil {
		return fail[CompetitiveIntelligence]("competitive intelligence", err)
	}

	var totalReviews int
	for _, b := range top {
		totalReviews += b.ReviewCount()
	}
	out := CompetitiveIntelligence{
		Competitors: make([]Competitor, 0, len(top)),
		Keywords:    make([]KeywordOpportunity, 0, len(keywords)),
		News:        make([]NewsItem, 0, len(news)),
	}
	for _, b := range top {
		out.Competitors = append(out.Competitors, Competitor{
			Name:        b.Name,
			Rating:      b.Rating,
			Reviews:     b.ReviewCount(),
			Phone:       b.Phone,
			MarketShare: round(ratio(float64(b.ReviewCount()), float64(totalReviews))*100, 1),
		})
	}
	for _, k := range keywords {
		out.Keywords = append(out.Keywords, KeywordOpportunity{
			Keyword:        k.Keyword,
			Difficulty:     k.DifficultyScore,
			OrganicResults: k.OrganicResults,
			PaidAds:        k.PaidAds,
			Opportunity:    OpportunityLevel(k.DifficultyScore),
		})
	}
	for _, n := range news {
		out.News = append(out.News, NewsItem{Title: n.Title, Source: n.Source, Published: n.Published})
	}

	leader, best := "N/A with 0 reviews", "N/A"
	if len(out.Competitors) > 0 {
		leader = fmt.Sprintf("%s with %d reviews", out.Competitors[0].Name, out.Competitors[0].Reviews)
	}
	if len(out.Keywords) > 0 {
		best = fmt.Sprintf("%s (difficulty: %d)", out.Keywords[0].Keyword, out.Keywords[0].Difficulty)
	}
	out.Insights = []string{
		"Market leader: " + leader,
		"Best keyword opportunity: " + best,
		fmt.Sprintf("Recent industry news: %d articles in database", len(out.News)),
	}
	return model.Succeed(out)
}

// --- Content strategy ---

// ContentOpportunity is a piece of content worth writing.
type ContentOpportunity struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// FAQ is a question with a shortened answer.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// RankedSuggestion is a keyword suggestion with its relevance.
type RankedSuggestion struct {
	Keyword   string `json:"keyword"`
	Relevance int    `json:"relevance"`
}

// ContentStrategy turns questions and related searches into content ideas.
type ContentStrategy struct {
	Opportunities   []ContentOpportunity `json:"content_opportunities"`
	FAQs            []FAQ                `json:"faq_questions"`
	RelatedSearches []string             `json:"related_searches"`
	TopKeywords     []RankedSuggestion   `json:"top_keywords"`
	Insights        []string             `json:"insights"`
}

const (
	contentQuestions   = 10
	contentRelated     = 15
	contentBlogPosts   = 5
	contentSuggestions = 10
	faqAnswerMax       = 100
	minQuestionLen     = 10
	minRelatedLen      = 5
)

// ContentStrategy proposes an FAQ article for each recent question longer
// than 10 characters and a guide for each of the five latest related
// searches longer than 5 characters.
func (a *Analyzer) ContentStrategy(ctx context.Context) model.Outcome[ContentStrategy] {
	questions, err := a.reader.RecentQuestions(ctx, contentQuestions)
	if err != nil {
		return fail[ContentStrategy]("content strategy", err)
	}
	related, err := a.reader.RecentRelatedSearches(ctx, contentRelated)
	if err != nil {
		return fail[ContentStrategy]("content strategy", err)
	}
	suggestions, err := a.reader.TopSuggestions(ctx, contentSuggestions)
	if err != nil {
		return fail[ContentStrategy]("content strategy", err)
	}

	out := ContentStrategy{
		Opportunities:   []ContentOpportunity{},
		FAQs:            make([]FAQ, 0, len(questions)),
		RelatedSearches: make([]string, 0, len(related)),
		TopKeywords:     make([]RankedSuggestion, 0, len(suggestions)),
	}
	for _, q := range questions {
		if len([]rune(q.Question)) > minQuestionLen {
			out.Opportunities = append(out.Opportunities, ContentOpportunity{
				Type: "FAQ Article", Title: q.Question, Priority: "High", Reason: "Featured snippet opportunity",
			})
		}
		out.FAQs = append(out.FAQs, FAQ{Question: q.Question, Answer: truncate(q.Answer, faqAnswerMax)})
	}
	for i, r := range related {
		out.RelatedSearches = append(out.RelatedSearches, r.Related)
		if i < contentBlogPosts && len([]rune(r.Related)) > minRelatedLen {
			out.Opportunities = append(out.Opportunities, ContentOpportunity{
				Type: "Blog Post", Title: "Complete Guide to " + r.Related, Priority: "Medium", Reason: "User search intent",
			})
		}
	}
	for _, s := range suggestions {
		out.TopKeywords = append(out.TopKeywords, RankedSuggestion{Keyword: s.Suggestion, Relevance: s.Relevance})
	}

	top := "N/A"
	if len(out.TopKeywords) > 0 {
		top = fmt.Sprintf("%s (relevance: %d)", out.TopKeywords[0].Keyword, out.TopKeywords[0].Relevance)
	}
	out.Insights = []string{
		fmt.Sprintf("Content opportunities: %d identified", len(out.Opportunities)),
		fmt.Sprintf("FAQ questions: %d for featured snippets", len(out.FAQs)),
		fmt.Sprintf("Related searches: %d for content ideas", len(out.RelatedSearches)),
		"Top keyword: " + top,
	}
	return model.Succeed(out)
}

// truncate shortens s to n runes followed by "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// --- Pricing intelligence ---

// PriceMetrics summarizes product prices.
type PriceMetrics struct {
	Total   int     `json:"total_products"`
	Average float64 `json:"average_price"`
	Min     float64 `json:"min_price"`
	Max     float64 `json:"max_price"`
	Median  float64 `json:"median_price"`
}

// PriceTiers counts products per price tier.
type PriceTiers struct {
	Budget  int `json:"budget"`
	Mid     int `json:"mid_range"`
	Premium int `json:"premium"`
}

// RatedProduct is a top-rated product.
type RatedProduct struct {
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Rating *float64 `json:"rating,omitempty"`
	Source string   `json:"source,omitempty"`
}

// PricingIntelligence describes the price landscape of priced products.
type PricingIntelligence struct {
	Message  string         `json:"message,omitempty"`
	Metrics  PriceMetrics   `json:"pricing_metrics"`
	Tiers    PriceTiers     `json:"price_distribution"`
	TopRated []RatedProduct `json:"top_rated_products"`
	Insights []string       `json:"insights"`
}

const (
	budgetBelow   = 10.0
	premiumFrom   = 50.0
	pricingTopOut = 5
)

// PriceTier names the tier of a price: budget under 10, mid_range under 50,
// premium otherwise.
func PriceTier(p float64) string {
	switch {
	case p < budgetBelow:
		return "budget"
	case p < premiumFrom:
		return "mid_range"
	default:
		return "premium"
	}
}

// PricingIntelligence computes price statistics and tiers over every
// product with a positive price.
func (a *Analyzer) PricingIntelligence(ctx context.Context) model.Outcome[PricingIntelligence] {
	products, err := a.reader.ListPricedProducts(ctx)
	if err != nil {
		return fail[PricingIntelligence]("pricing intelligence", err)
	}

	out := PricingIntelligence{TopRated: []RatedProduct{}}
	var prices []float64
	for _, p := range products {
		if p.Price != nil && *p.Price > 0 {
			prices = append(prices, *p.Price)
		}
	}
	if len(prices) == 0 {
		out.Message = "No product pricing data available"
		out.Insights = []string{}
		return model.Succeed(out)
	}

	sort.Float64s(prices)
	var sum float64
	for _, p := range prices {
		sum += p
		switch PriceTier(p) {
		case "budget":
			out.Tiers.Budget++
		case "mid_range":
			out.Tiers.Mid++
		default:
			out.Tiers.Premium++
		}
	}
	out.Metrics = PriceMetrics{
		Total:   len(prices),
		Average: round(sum/float64(len(prices)), 2),
		Min:     prices[0],
		Max:     prices[len(prices)-1],
		Median:  round(median(prices), 2),
	}

	rated := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Price != nil && *p.Price > 0 {
			rated = append(rated, p)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool {
		return ratingOf(rated[i]) > ratingOf(rated[j])
	})
	for _, p := range rated[:min(pricingTopOut, len(rated))] {
		out.TopRated = append(out.TopRated, RatedProduct{Name: p.Title, Price: *p.Price, Rating: p.Rating, Source: p.Source})
	}

	out.Insights = []string{
		fmt.Sprintf("Average product cost: $%.2f", out.Metrics.Average),
		fmt.Sprintf("Price range: $%.2f - $%.2f", out.Metrics.Min, out.Metrics.Max),
		fmt.Sprintf("Budget options: %d products under $10", out.Tiers.Budget),
		fmt.Sprintf("Premium options: %d products at $50 or more", out.Tiers.Premium),
	}
	return model.Succeed(out)
}

func ratingOf(p model.Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// median of sorted values.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// --- Trend analysis ---

// SearchTrend compares recent search interest with the period before.
type SearchTrend struct {
	CurrentInterest  float64 `json:"current_interest"`
	PreviousInterest float64 `json:"previous_interest"`
	Direction        string  `json:"trend_direction"`
	ChangePct        float64 `json:"trend_percentage"`
	Volatility       float64 `json:"volatility"`
}

// RegionalTrend is a region's interest and market potential.
type RegionalTrend struct {
	Region    string `json:"region"`
	Interest  int    `json:"interest"`
	Rank      int    `json:"rank"`
	Potential string `json:"market_potential"`
}

// TrendAnalysis is the direction of search interest and the strongest
// regions.
type TrendAnalysis struct {
	Message  string          `json:"message,omitempty"`
	Search   SearchTrend     `json:"search_trends"`
	Regions  []RegionalTrend `json:"regional_trends"`
	Insights []string        `json:"insights"`
}

const (
	trendSamples = 10
	trendWindow  = 3
	trendRegions = 10
)

// Trend directions.
const (
	TrendGrowing   = "Growing"
	TrendDeclining = "Declining"
	TrendStable    = "Stable"
)

// MarketPotential is High from 60 interest, Medium from 40, else Low.
func MarketPotential(interest int) string {
	switch {
	case interest >= 60:
		return "High"
	case interest >= 40:
		return "Medium"
	default:
		return "Low"
	}
}

// TrendAnalysis compares the mean of the three most recent volume summaries
// with the mean of the three before them and buckets the top regions by
// market potential.
func (a *Analyzer) TrendAnalysis(ctx context.Context) model.Outcome[TrendAnalysis] {
	samples, err := a.reader.RecentVolumeSamples(ctx, trendSamples)
	if err != nil {
		return fail[TrendAnalysis]("trend analysis", err)
	}
	regions, err := a.reader.TopRegions(ctx, "", trendRegions)
	if err != nil {
		return fail[TrendAnalysis]("trend analysis", err)
	}

	out := TrendAnalysis{Regions: make([]RegionalTrend, 0, len(regions))}
	for _, r := range regions {
		out.Regions = append(out.Regions, RegionalTrend{
			Region: r.Region, Interest: r.Interest, Rank: r.Rank, Potential: MarketPotential(r.Interest),
		})
	}
	if len(samples) == 0 {
		out.Message = "No trend data available yet"
		out.Insights = []string{}
		return model.Succeed(out)
	}

	recent := meanInterest(samples[:min(trendWindow, len(samples))])
	var older float64
	if len(samples) > trendWindow {
		older = meanInterest(samples[trendWindow:min(2*trendWindow, len(samples))])
	}
	out.Search = SearchTrend{
		CurrentInterest:  round(recent, 1),
		PreviousInterest: round(older, 1),
		Direction:        TrendStable,
		ChangePct:        round(math.Abs(ratio(recent-older, older))*100, 1),
		Volatility:       round(meanVolatility(samples), 1),
	}
	switch {
	case recent > older:
		out.Search.Direction = TrendGrowing
	case recent < older:
		out.Search.Direction = TrendDeclining
	}

	topMarket := "N/A"
	if len(out.Regions) > 0 {
		topMarket = fmt.Sprintf("%s (interest: %d)", out.Regions[0].Region, out.Regions[0].Interest)
	}
	out.Insights = []string{
		fmt.Sprintf("Search interest: %s by %.1f%%", out.Search.Direction, out.Search.ChangePct),
		fmt.Sprintf("Current interest level: %.1f/100", out.Search.CurrentInterest),
		"Top market: " + topMarket,
		fmt.Sprintf("Market volatility: %.1f/100", out.Search.Volatility),
	}
	return model.Succeed(out)
}

// meanInterest averages the period averages of summary samples, falling
// back to the last observed interest when a sample has no average.
func meanInterest(samples []model.VolumeSample) float64 {
	var sum float64
	for _, s := range samples {
		if s.AvgInterest != nil {
			sum += *s.AvgInterest
		} else {
			sum += s.Interest
		}
	}
	return ratio(sum, float64(len(samples)))
}

func meanVolatility(samples []model.VolumeSample) float64 {
	var sum float64
	for _, s := range samples {
		if s.Volatility != nil {
			sum += *s.Volatility
		}
	}
	return ratio(sum, float64(len(samples)))
}
