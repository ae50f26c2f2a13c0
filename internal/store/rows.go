package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/LeadTechMaster/API/internal/model"
)

// Column lists shared by both backends. Row builders return values in the
// same order.
var (
	businessCols = []string{
		"id", "name", "platform", "place_id", "rating", "reviews", "address", "phone",
		"website", "hours", "category", "price_range", "latitude", "longitude",
		"query", "location", "position", "session_id", "call_id", "created_at",
	}
	keywordCols = []string{
		"keyword", "location", "difficulty_score", "difficulty_level", "search_volume",
		"organic_results", "paid_ads", "session_id", "call_id", "updated_at",
	}
	regionCols = []string{
		"keyword", "country", "region", "interest", "rank", "session_id", "call_id", "created_at",
	}
	volumeCols = []string{
		"keyword", "location", "date_range", "timeline_date", "interest", "avg_interest",
		"trend", "volatility", "session_id", "call_id", "created_at",
	}
	searchResultCols = []string{
		"keyword", "location", "engine", "position", "title", "link", "snippet", "domain",
		"session_id", "call_id", "created_at",
	}
	contentCols = []string{
		"kind", "query", "title", "link", "source", "published", "snippet", "thumbnail",
		"views", "duration", "position", "session_id", "call_id", "created_at",
	}
	productCols = []string{
		"query", "engine", "title", "link", "source", "price", "price_text", "rating",
		"reviews", "position", "session_id", "call_id", "created_at",
	}
	jobCols = []string{
		"query", "location", "title", "company", "via", "link", "salary", "posted",
		"position", "session_id", "call_id", "created_at",
	}
	questionCols = []string{
		"keyword", "question", "answer", "link", "position", "session_id", "call_id", "created_at",
	}
	relatedCols = []string{
		"keyword", "related", "link", "session_id", "call_id", "created_at",
	}
	suggestionCols = []string{
		"keyword", "suggestion", "relevance", "type", "session_id", "call_id", "created_at",
	}
)

// stamp normalizes a timestamp to UTC, substituting now for the zero time.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func businessRow(b model.Business) []any {
	return []any{
		b.ID, b.Name, string(b.Platform), b.PlaceID, b.Rating, b.Reviews, b.Address, b.Phone,
		b.Website, b.Hours, b.Category, b.PriceRange, b.Latitude, b.Longitude,
		b.Query, b.Location, b.Position, b.SessionID, b.CallID, stamp(b.CreatedAt),
	}
}

func keywordRow(k model.Keyword) []any {
	level := k.DifficultyLevel
	if level == "" {
		level = model.LevelForScore(k.DifficultyScore)
	}
	return []any{
		k.Keyword, k.Location, k.DifficultyScore, string(level), k.SearchVolume,
		k.OrganicResults, k.PaidAds, k.SessionID, k.CallID, stamp(k.UpdatedAt),
	}
}

func regionRow(r model.RegionalInterest) []any {
	return []any{r.Keyword, r.Country, r.Region, r.Interest, r.Rank, r.SessionID, r.CallID, stamp(r.CreatedAt)}
}

func volumeRow(v model.VolumeSample) []any {
	return []any{
		v.Keyword, v.Location, v.DateRange, v.TimelineDate, v.Interest, v.AvgInterest,
		v.Trend, v.Volatility, v.SessionID, v.CallID, stamp(v.CreatedAt),
	}
}

func searchResultRow(r model.SearchResult) []any {
	return []any{
		r.Keyword, r.Location, r.Engine, r.Position, r.Title, r.Link, r.Snippet, r.Domain,
		r.SessionID, r.CallID, stamp(r.CreatedAt),
	}
}

func contentRow(c model.ContentItem) []any {
	return []any{
		string(c.Kind), c.Query, c.Title, c.Link, c.Source, c.Published, c.Snippet, c.Thumbnail,
		c.Views, c.Duration, c.Position, c.SessionID, c.CallID, stamp(c.CreatedAt),
	}
}

func productRow(p model.Product) []any {
	return []any{
		p.Query, p.Engine, p.Title, p.Link, p.Source, p.Price, p.PriceText, p.Rating,
		p.Reviews, p.Position, p.SessionID, p.CallID, stamp(p.CreatedAt),
	}
}

func jobRow(j model.Job) []any {
	return []any{
		j.Query, j.Location, j.Title, j.Company, j.Via, j.Link, j.Salary, j.Posted,
		j.Position, j.SessionID, j.CallID, stamp(j.CreatedAt),
	}
}

func questionRow(q model.Question) []any {
	return []any{q.Keyword, q.Question, q.Answer, q.Link, q.Position, q.SessionID, q.CallID, stamp(q.CreatedAt)}
}

func relatedRow(r model.RelatedSearch) []any {
	return []any{r.Keyword, r.Related, r.Link, r.SessionID, r.CallID, stamp(r.CreatedAt)}
}

func suggestionRow(s model.Suggestion) []any {
	return []any{s.Keyword, s.Suggestion, s.Relevance, s.Type, s.SessionID, s.CallID, stamp(s.CreatedAt)}
}

func rowsOf[T any](items []T, fn func(T) []any) [][]any {
	out := make([][]any, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// selectList joins columns for a SELECT clause.
func selectList(cols []string) string {
	return strings.Join(cols, ", ")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBusiness(row scannable) (model.Business, error) {
	var b model.Business
	var platform string
	err := row.Scan(
		&b.ID, &b.Name, &platform, &b.PlaceID, &b.Rating, &b.Reviews, &b.Address, &b.Phone,
		&b.Website, &b.Hours, &b.Category, &b.PriceRange, &b.Latitude, &b.Longitude,
		&b.Query, &b.Location, &b.Position, &b.SessionID, &b.CallID, &b.CreatedAt,
	)
	b.Platform = model.Platform(platform)
	return b, err
}

func scanKeyword(row scannable) (model.Keyword, error) {
	var k model.Keyword
	var level string
	err := row.Scan(
		&k.Keyword, &k.Location, &k.DifficultyScore, &level, &k.SearchVolume,
		&k.OrganicResults, &k.PaidAds, &k.SessionID, &k.CallID, &k.UpdatedAt,
	)
	k.DifficultyLevel = model.DifficultyLevel(level)
	return k, err
}

func scanRegion(row scannable) (model.RegionalInterest, error) {
	var r model.RegionalInterest
	err := row.Scan(&r.Keyword, &r.Country, &r.Region, &r.Interest, &r.Rank, &r.SessionID, &r.CallID, &r.CreatedAt)
	return r, err
}

func scanVolume(row scannable) (model.VolumeSample, error) {
	var v model.VolumeSample
	err := row.Scan(
		&v.Keyword, &v.Location, &v.DateRange, &v.TimelineDate, &v.Interest, &v.AvgInterest,
		&v.Trend, &v.Volatility, &v.SessionID, &v.CallID, &v.CreatedAt,
	)
	return v, err
}

func scanSearchResult(row scannable) (model.SearchResult, error) {
	var r model.SearchResult
	err := row.Scan(
		&r.Keyword, &r.Location, &r.Engine, &r.Position, &r.Title, &r.Link, &r.Snippet, &r.Domain,
		&r.SessionID, &r.CallID, &r.CreatedAt,
	)
	return r, err
}

func scanContent(row scannable) (model.ContentItem, error) {
	var c model.ContentItem
	var kind string
	err := row.Scan(
		&kind, &c.Query, &c.Title, &c.Link, &c.Source, &c.Published, &c.Snippet, &c.Thumbnail,
		&c.Views, &c.Duration, &c.Position, &c.SessionID, &c.CallID, &c.CreatedAt,
	)
	c.Kind = model.ContentKind(kind)
	return c, err
}

func scanProduct(row scannable) (model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.Query, &p.Engine, &p.Title, &p.Link, &p.Source, &p.Price, &p.PriceText, &p.Rating,
		&p.Reviews, &p.Position, &p.SessionID, &p.CallID, &p.CreatedAt,
	)
	return p, err
}

func scanJob(row scannable) (model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.Query, &j.Location, &j.Title, &j.Company, &j.Via, &j.Link, &j.Salary, &j.Posted,
		&j.Position, &j.SessionID, &j.CallID, &j.CreatedAt,
	)
	return j, err
}

func scanQuestion(row scannable) (model.Question, error) {
	var q model.Question
	err := row.Scan(&q.Keyword, &q.Question, &q.Answer, &q.Link, &q.Position, &q.SessionID, &q.CallID, &q.CreatedAt)
	return q, err
}

func scanRelated(row scannable) (model.RelatedSearch, error) {
	var r model.RelatedSearch
	err := row.Scan(&r.Keyword, &r.Related, &r.Link, &r.SessionID, &r.CallID, &r.CreatedAt)
	return r, err
}

func scanSuggestion(row scannable) (model.Suggestion, error) {
	var s model.Suggestion
	err := row.Scan(&s.Keyword, &s.Suggestion, &s.Relevance, &s.Type, &s.SessionID, &s.CallID, &s.CreatedAt)
	return s, err
}

// rowIterator is satisfied by *sql.Rows and pgx.Rows.
type rowIterator interface {
	scannable
	Next() bool
	Err() error
}

func collect[T any](rows rowIterator, scan func(scannable) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// keywordUpdate is the conflict assignment for one keyword column. A
// difficulty refresh carries no volume, so search_volume keeps its value.
func keywordUpdate(col, excluded string) string {
	if col == "search_volume" {
		return fmt.Sprintf("%s = COALESCE(%s.%s, keywords.%s)", col, excluded, col, col)
	}
	return col + " = " + excluded + "." + col
}
