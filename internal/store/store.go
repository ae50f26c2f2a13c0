package store

import (
	"context"
	"time"

	"github.com/LeadTechMaster/API/internal/model"
)

// CallKey identifies the (endpoint, query, location) triple a call was made for.
type CallKey struct {
	Endpoint string `json:"endpoint"`
	Query    string `json:"query"`
	Location string `json:"location"`
}

// BusinessFilter specifies criteria for listing businesses.
type BusinessFilter struct {
	Platforms       []model.Platform `json:"platforms,omitempty"`
	WithCoordinates bool             `json:"with_coordinates,omitempty"`
	RatedOnly       bool             `json:"rated_only,omitempty"`
	MinReviews      int              `json:"min_reviews,omitempty"`
	OrderByReviews  bool             `json:"order_by_reviews,omitempty"`
	Limit           int              `json:"limit,omitempty"`
}

// KeywordOrder selects the sort order of ListKeywords.
type KeywordOrder string

const (
	// OrderByVolume sorts by search volume, highest first.
	OrderByVolume KeywordOrder = "volume"
	// OrderByDifficulty sorts by difficulty, easiest first.
	OrderByDifficulty KeywordOrder = "difficulty"
)

// KeywordFilter specifies criteria for listing keywords. A keyword matches
// when its location contains any of LocationLike.
type KeywordFilter struct {
	LocationLike []string     `json:"location_like,omitempty"`
	OrderBy      KeywordOrder `json:"order_by,omitempty"`
	Limit        int          `json:"limit,omitempty"`
}

// Store defines the persistence interface for call logs, sessions and
// normalized provider results.
type Store interface {
	// Call log
	LogCall(ctx context.Context, rec *model.CallRecord) error
	LatestSuccess(ctx context.Context, key CallKey) (*model.CallRecord, error)
	CachedPayload(ctx context.Context, key CallKey, since time.Time) (*model.CallRecord, error)
	RecentCalls(ctx context.Context, limit int) ([]model.CallRecord, error)
	PruneCalls(ctx context.Context, before time.Time) (int, error)
	CountCalls(ctx context.Context, since time.Time) (int, error)

	// Sessions
	CurrentSession(ctx context.Context, industry, location string) (*model.Session, error)
	CloseSession(ctx context.Context, id string) error

	// Businesses
	UpsertBusinesses(ctx context.Context, businesses []model.Business) (int, error)
	ListBusinesses(ctx context.Context, filter BusinessFilter) ([]model.Business, error)

	// Keywords
	UpsertKeyword(ctx context.Context, kw model.Keyword) error
	SetKeywordVolume(ctx context.Context, keyword string, volume int) error
	ListKeywords(ctx context.Context, filter KeywordFilter) ([]model.Keyword, error)

	// Regional interest
	AddRegionalInterest(ctx context.Context, regions []model.RegionalInterest) error
	TopRegions(ctx context.Context, keyword string, limit int) ([]model.RegionalInterest, error)
	RegionInterest(ctx context.Context, region string) (*model.RegionalInterest, error)

	// Volume history
	AddVolumeSamples(ctx context.Context, samples []model.VolumeSample) error
	RecentVolumeSamples(ctx context.Context, limit int) ([]model.VolumeSample, error)
	VolumeTimeline(ctx context.Context, keyword, location, dateRange string) ([]model.VolumeSample, error)

	// Append-only results
	AddSearchResults(ctx context.Context, results []model.SearchResult) error
	RecentSearchResults(ctx context.Context, limit int) ([]model.SearchResult, error)
	AddContent(ctx context.Context, items []model.ContentItem) error
	RecentContent(ctx context.Context, kind model.ContentKind, limit int) ([]model.ContentItem, error)
	AddProducts(ctx context.Context, products []model.Product) error
	ListPricedProducts(ctx context.Context) ([]model.Product, error)
	AddJobs(ctx context.Context, jobs []model.Job) error
	RecentJobs(ctx context.Context, limit int) ([]model.Job, error)
	AddQuestions(ctx context.Context, questions []model.Question) error
	RecentQuestions(ctx context.Context, limit int) ([]model.Question, error)
	AddRelatedSearches(ctx context.Context, related []model.RelatedSearch) error
	RecentRelatedSearches(ctx context.Context, limit int) ([]model.RelatedSearch, error)
	AddSuggestions(ctx context.Context, suggestions []model.Suggestion) error
	TopSuggestions(ctx context.Context, limit int) ([]model.Suggestion, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// SessionName formats the display name of a new session.
func SessionName(industry, location string, now time.Time) string {
	return industry + " - " + location + " - " + now.Format("2006-01-02 15:04")
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

// validateBusinesses rejects the batch if any listing breaks the rating or
// review invariants.
func validateBusinesses(businesses []model.Business) error {
	for _, b := range businesses {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
