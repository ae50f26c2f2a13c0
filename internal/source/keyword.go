package source

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// highAuthorityDomains raise keyword difficulty when they rank in the top 10.
var highAuthorityDomains = []string{
	"wikipedia.org", "amazon.com", "youtube.com", "facebook.com",
	"linkedin.com", "twitter.com", "instagram.com", "reddit.com",
}

// DifficultyMetrics are the SERP signals the difficulty score is built from.
type DifficultyMetrics struct {
	OrganicResults     int  `json:"total_organic_results"`
	Ads                int  `json:"num_ads"`
	FeaturedSnippet    bool `json:"has_featured_snippet"`
	KnowledgeGraph     bool `json:"has_knowledge_graph"`
	LocalResults       bool `json:"has_local_results"`
	HighAuthorityTop10 int  `json:"high_authority_domains_in_top10"`
}

// Score is 5 per ad, 20 for a featured snippet, 15 for a knowledge graph
// and 7 per high-authority domain in the top 10, capped at 100.
func (m DifficultyMetrics) Score() int {
	score := m.Ads * 5
	if m.FeaturedSnippet {
		score += 20
	}
	if m.KnowledgeGraph {
		score += 15
	}
	score += m.HighAuthorityTop10 * 7
	return min(score, 100)
}

// KeywordDifficulty is a normalized difficulty analysis.
type KeywordDifficulty struct {
	Keyword  string                `json:"keyword"`
	Location string                `json:"location"`
	Score    int                   `json:"difficulty_score"`
	Level    model.DifficultyLevel `json:"difficulty_level"`
	Metrics  DifficultyMetrics     `json:"metrics"`
}

// SerpFeatureFlags records which result blocks a SERP contains.
type SerpFeatureFlags struct {
	Ads             bool `json:"has_ads"`
	NumAds          int  `json:"num_ads"`
	FeaturedSnippet bool `json:"has_featured_snippet"`
	KnowledgeGraph  bool `json:"has_knowledge_graph"`
	LocalResults    bool `json:"has_local_results"`
	ImageResults    bool `json:"has_image_results"`
	VideoResults    bool `json:"has_video_results"`
	ShoppingResults bool `json:"has_shopping_results"`
	PeopleAlsoAsk   bool `json:"has_people_also_ask"`
	RelatedSearches bool `json:"has_related_searches"`
	TopStories      bool `json:"has_top_stories"`
	TwitterResults  bool `json:"has_twitter_results"`
}

// KnowledgeGraph is the summary panel of a SERP.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// SerpFeatures is a normalized SERP feature analysis.
type SerpFeatures struct {
	Keyword              string           `json:"keyword"`
	Location             string           `json:"location"`
	Features             SerpFeatureFlags `json:"features"`
	OrganicCount         int              `json:"organic_results_count"`
	FeaturedSnippet      *Snippet         `json:"featured_snippet,omitempty"`
	KnowledgeGraph       *KnowledgeGraph  `json:"knowledge_graph,omitempty"`
	LocalResultsCount    int              `json:"local_results_count"`
	PeopleAlsoAskCount   int              `json:"people_also_ask_count"`
	RelatedSearchesCount int              `json:"related_searches_count"`
}

type knowledgeGraph struct {
	Title       text `json:"title"`
	Type        text `json:"type"`
	Description text `json:"description"`
}

type serpResponse struct {
	OrganicResults   list[organic]         `json:"organic_results"`
	Ads              list[organic]         `json:"ads"`
	AnswerBox        json.RawMessage       `json:"answer_box"`
	KnowledgeGraph   json.RawMessage       `json:"knowledge_graph"`
	LocalResults     json.RawMessage       `json:"local_results"`
	RelatedQuestions list[relatedQuestion] `json:"related_questions"`
	RelatedSearches  list[relatedQuery]    `json:"related_searches"`
	PeopleAlsoSearch list[relatedQuery]    `json:"people_also_search_for"`

	// raw holds every top-level key for presence checks.
	raw map[string]json.RawMessage
}

func (r *serpResponse) UnmarshalJSON(b []byte) error {
	type plain serpResponse
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = serpResponse(p)
	return json.Unmarshal(b, &r.raw)
}

// has reports whether key was sent with a value. The provider omits blocks
// a SERP does not have.
func (r serpResponse) has(key string) bool {
	v, ok := r.raw[key]
	return ok && present(v)
}

func (r serpResponse) difficultyMetrics() DifficultyMetrics {
	m := DifficultyMetrics{
		OrganicResults:  len(r.OrganicResults),
		Ads:             len(r.Ads),
		FeaturedSnippet: r.has("answer_box"),
		KnowledgeGraph:  r.has("knowledge_graph"),
		LocalResults:    r.has("local_results"),
	}
	top := r.OrganicResults
	if len(top) > 10 {
		top = top[:10]
	}
	for _, o := range top {
		link := o.Link.String()
		for _, d := range highAuthorityDomains {
			if strings.Contains(link, d) {
				m.HighAuthorityTop10++
				break
			}
		}
	}
	return m
}

func (r serpResponse) features(q Query) SerpFeatures {
	f := SerpFeatures{
		Keyword:  q.Query,
		Location: q.Location,
		Features: SerpFeatureFlags{
			Ads:             len(r.Ads) > 0,
			NumAds:          len(r.Ads),
			FeaturedSnippet: r.has("answer_box") || r.has("featured_snippet"),
			KnowledgeGraph:  r.has("knowledge_graph"),
			LocalResults:    r.has("local_results") || r.has("local_pack"),
			ImageResults:    r.has("inline_images"),
			VideoResults:    r.has("inline_videos"),
			ShoppingResults: r.has("shopping_results"),
			PeopleAlsoAsk:   r.has("related_questions"),
			RelatedSearches: r.has("related_searches"),
			TopStories:      r.has("top_stories"),
			TwitterResults:  r.has("twitter_results"),
		},
		OrganicCount:         len(r.OrganicResults),
		LocalResultsCount:    countItems(r.LocalResults),
		PeopleAlsoAskCount:   len(r.RelatedQuestions),
		RelatedSearchesCount: len(r.RelatedSearches),
	}

	var box opt[answerBox]
	_ = box.UnmarshalJSON(r.AnswerBox)
	if box.Set {
		f.FeaturedSnippet = &Snippet{
			Title:   box.V.Title.String(),
			Snippet: box.V.Snippet.String(),
			Link:    box.V.Link.String(),
		}
	}
	var kg opt[knowledgeGraph]
	_ = kg.UnmarshalJSON(r.KnowledgeGraph)
	if kg.Set {
		f.KnowledgeGraph = &KnowledgeGraph{
			Title:       kg.V.Title.String(),
			Type:        kg.V.Type.String(),
			Description: kg.V.Description.String(),
		}
	}
	return f
}

// countItems counts the entries of an array, or of the "places" array of an
// object.
func countItems(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return len(arr)
	}
	var pack struct {
		Places []json.RawMessage `json:"places"`
	}
	if err := json.Unmarshal(raw, &pack); err == nil {
		return len(pack.Places)
	}
	return 0
}

// Questions is a normalized "people also ask" result.
type Questions struct {
	Keyword   string           `json:"keyword"`
	Total     int              `json:"total_questions"`
	Questions []model.Question `json:"questions"`
}

type relatedQuestion struct {
	Question text `json:"question"`
	Snippet  text `json:"snippet"`
	Title    text `json:"title"`
	Link     text `json:"link"`
}

// RelatedSearches is a normalized related-searches result.
type RelatedSearches struct {
	Query               string                `json:"query"`
	Location            string                `json:"location"`
	Total               int                   `json:"total_related"`
	Related             []model.RelatedSearch `json:"related_searches"`
	PeopleAlsoSearchFor []string              `json:"people_also_search_for,omitempty"`
}

// Suggestions is a normalized autocomplete result.
type Suggestions struct {
	Keyword     string             `json:"keyword"`
	Location    string             `json:"location"`
	Total       int                `json:"total_suggestions"`
	Suggestions []model.Suggestion `json:"suggestions"`
}

type suggestion struct {
	Value     text   `json:"value"`
	Relevance number `json:"relevance"`
	Type      text   `json:"type"`
}

type autocompleteResponse struct {
	Suggestions list[suggestion] `json:"suggestions"`
}

func (r autocompleteResponse) normalize(q Query, kind string) Suggestions {
	out := Suggestions{Keyword: q.Query, Location: q.Location, Suggestions: make([]model.Suggestion, 0, len(r.Suggestions))}
	for _, s := range r.Suggestions {
		if s.Value == "" {
			continue
		}
		typ := s.Type.String()
		if typ == "" {
			typ = kind
		}
		out.Suggestions = append(out.Suggestions, model.Suggestion{
			Keyword:    q.Query,
			Suggestion: s.Value.String(),
			Relevance:  int(s.Relevance.or(0)),
			Type:       typ,
		})
	}
	out.Total = len(out.Suggestions)
	return out
}

// partial cuts the last word of keyword to three letters, the way a user
// types it into a search box.
func partial(keyword string) string {
	words := strings.Fields(keyword)
	if len(words) == 0 {
		return keyword
	}
	if last := words[len(words)-1]; len(last) > 3 {
		words[len(words)-1] = last[:3]
	}
	return strings.Join(words, " ")
}

func registerKeywords(r *Registry) {
	register(r, adapter[KeywordDifficulty]{
		name:     "Keyword Difficulty",
		slug:     "keyword-difficulty",
		category: "competitive_intelligence",
		def:      func(d Defaults) Query { return Query{Query: d.Keyword, Location: "United States"} },
		fetch: func(ctx context.Context, e env, q Query) (KeywordDifficulty, error) {
			resp, err := call[serpResponse](ctx, e, "google", params("q", q.Query, "location", q.Location, "num", "100"))
			if err != nil {
				return KeywordDifficulty{}, err
			}
			m := resp.difficultyMetrics()
			score := m.Score()
			return KeywordDifficulty{
				Keyword:  q.Query,
				Location: q.Location,
				Score:    score,
				Level:    model.LevelForScore(score),
				Metrics:  m,
			}, nil
		},
		persist: func(ctx context.Context, st store.Store, data KeywordDifficulty, m Meta) error {
			return st.UpsertKeyword(ctx, model.Keyword{
				Keyword:         data.Keyword,
				Location:        data.Location,
				DifficultyScore: data.Score,
				DifficultyLevel: data.Level,
				OrganicResults:  data.Metrics.OrganicResults,
				PaidAds:         data.Metrics.Ads,
				SessionID:       m.SessionID,
				CallID:          m.CallID,
			})
		},
	})

	register(r, adapter[SerpFeatures]{
		name:     "SERP Analysis",
		slug:     "serp-analysis",
		category: "competitive_intelligence",
		def:      keywordAt,
		fetch: func(ctx context.Context, e env, q Query) (SerpFeatures, error) {
			resp, err := call[serpResponse](ctx, e, "google", params("q", q.Query, "location", q.Location, "num", "100"))
			if err != nil {
				return SerpFeatures{}, err
			}
			return resp.features(q), nil
		},
	})

	register(r, adapter[Questions]{
		name:     "People Also Ask",
		slug:     "people-also-ask",
		category: "keyword_research",
		def:      keywordAt,
		fetch: func(ctx context.Context, e env, q Query) (Questions, error) {
			resp, err := call[serpResponse](ctx, e, "google", params("q", q.Query, "location", q.Location))
			if err != nil {
				return Questions{}, err
			}
			out := Questions{Keyword: q.Query, Questions: make([]model.Question, 0, len(resp.RelatedQuestions))}
			for i, rq := range resp.RelatedQuestions {
				if rq.Question == "" {
					continue
				}
				out.Questions = append(out.Questions, model.Question{
					Keyword:  q.Query,
					Question: rq.Question.String(),
					Answer:   rq.Snippet.String(),
					Link:     rq.Link.String(),
					Position: i + 1,
				})
			}
			out.Total = len(out.Questions)
			return out, nil
		},
		persist: func(ctx context.Context, st store.Store, data Questions, m Meta) error {
			rows := make([]model.Question, len(data.Questions))
			for i, q := range data.Questions {
				q.SessionID, q.CallID = m.SessionID, m.CallID
				rows[i] = q
			}
			return st.AddQuestions(ctx, rows)
		},
	})

	register(r, adapter[RelatedSearches]{
		name:     "Related Searches",
		slug:     "related-searches",
		category: "keyword_research",
		def:      func(d Defaults) Query { return Query{Query: d.Keyword, Location: "United States"} },
		fetch: func(ctx context.Context, e env, q Query) (RelatedSearches, error) {
			resp, err := call[serpResponse](ctx, e, "google", params("q", q.Query, "location", q.Location, "num", "10"))
			if err != nil {
				return RelatedSearches{}, err
			}
			out := RelatedSearches{Query: q.Query, Location: q.Location, Related: make([]model.RelatedSearch, 0, len(resp.RelatedSearches))}
			for _, rel := range resp.RelatedSearches {
				if rel.Query == "" {
					continue
				}
				out.Related = append(out.Related, model.RelatedSearch{
					Keyword: q.Query,
					Related: rel.Query.String(),
					Link:    rel.Link.String(),
				})
			}
			for _, p := range resp.PeopleAlsoSearch {
				if p.Query != "" {
					out.PeopleAlsoSearchFor = append(out.PeopleAlsoSearchFor, p.Query.String())
				}
			}
			out.Total = len(out.Related)
			return out, nil
		},
		persist: func(ctx context.Context, st store.Store, data RelatedSearches, m Meta) error {
			rows := make([]model.RelatedSearch, len(data.Related))
			for i, rel := range data.Related {
				rel.SessionID, rel.CallID = m.SessionID, m.CallID
				rows[i] = rel
			}
			return st.AddRelatedSearches(ctx, rows)
		},
	})

	register(r, suggestionAdapter("Keyword Suggestions", "keyword-suggestions", "suggestion",
		func(d Defaults) Query { return Query{Query: d.Keyword, Location: "us"} }))
	register(r, suggestionAdapter("Autocomplete", "autocomplete", "autocomplete",
		func(d Defaults) Query { return Query{Query: partial(d.Keyword), Location: "us"} }))
}

func suggestionAdapter(name, slug, kind string, def func(Defaults) Query) adapter[Suggestions] {
	return adapter[Suggestions]{
		name:     name,
		slug:     slug,
		category: "keyword_research",
		def:      def,
		fetch: func(ctx context.Context, e env, q Query) (Suggestions, error) {
			resp, err := call[autocompleteResponse](ctx, e, "google_autocomplete", params("q", q.Query, "gl", q.Location))
			if err != nil {
				return Suggestions{}, err
			}
			return resp.normalize(q, kind), nil
		},
		persist: func(ctx context.Context, st store.Store, data Suggestions, m Meta) error {
			rows := make([]model.Suggestion, len(data.Suggestions))
			for i, s := range data.Suggestions {
				s.SessionID, s.CallID = m.SessionID, m.CallID
				rows[i] = s
			}
			return st.AddSuggestions(ctx, rows)
		},
	}
}
