package source

import (
	"context"
	"strings"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// SearchResults is a normalized organic result list from any web, patent or
// scholar engine.
type SearchResults struct {
	Engine          string               `json:"engine"`
	Query           string               `json:"query"`
	Location        string               `json:"location,omitempty"`
	Total           int                  `json:"total_results"`
	Results         []model.SearchResult `json:"organic_results"`
	Ads             []Ad                 `json:"ads"`
	FeaturedSnippet *Snippet             `json:"featured_snippet,omitempty"`
	Related         []string             `json:"related_searches,omitempty"`
}

// Ad is a paid search result.
type Ad struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
}

// Snippet is an answer box or featured snippet.
type Snippet struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Link    string `json:"link,omitempty"`
}

type organic struct {
	Position      number `json:"position"`
	Title         text   `json:"title"`
	Link          text   `json:"link"`
	PatentLink    text   `json:"patent_link"`
	Snippet       text   `json:"snippet"`
	DisplayedLink text   `json:"displayed_link"`
}

type answerBox struct {
	Title   text `json:"title"`
	Snippet text `json:"snippet"`
	Answer  text `json:"answer"`
	Link    text `json:"link"`
}

type relatedQuery struct {
	Query text `json:"query"`
	Link  text `json:"link"`
}

type searchResponse struct {
	OrganicResults  list[organic]      `json:"organic_results"`
	Ads             list[organic]      `json:"ads"`
	AnswerBox       opt[answerBox]     `json:"answer_box"`
	RelatedSearches list[relatedQuery] `json:"related_searches"`
}

func (r searchResponse) normalize(engine string, q Query, keyword string) SearchResults {
	out := SearchResults{
		Engine:   engine,
		Query:    q.Query,
		Location: q.Location,
		Results:  make([]model.SearchResult, 0, len(r.OrganicResults)),
		Ads:      make([]Ad, 0, len(r.Ads)),
	}
	for i, o := range r.OrganicResults {
		link := o.Link.String()
		if link == "" {
			link = o.PatentLink.String()
		}
		out.Results = append(out.Results, model.SearchResult{
			Keyword:  keyword,
			Location: q.Location,
			Engine:   engine,
			Position: position(o.Position, i),
			Title:    o.Title.String(),
			Link:     link,
			Snippet:  o.Snippet.String(),
			Domain:   resultDomain(o.DisplayedLink.String(), link),
		})
	}
	for i, a := range r.Ads {
		out.Ads = append(out.Ads, Ad{
			Position: position(a.Position, i),
			Title:    a.Title.String(),
			Link:     a.Link.String(),
			Snippet:  a.Snippet.String(),
		})
	}
	if r.AnswerBox.Set {
		box := r.AnswerBox.V
		out.FeaturedSnippet = &Snippet{
			Title:   box.Title.String(),
			Snippet: box.Snippet.String(),
			Answer:  box.Answer.String(),
			Link:    box.Link.String(),
		}
	}
	for _, rel := range r.RelatedSearches {
		if rel.Query != "" {
			out.Related = append(out.Related, rel.Query.String())
		}
	}
	out.Total = len(out.Results)
	return out
}

func resultDomain(displayed, link string) string {
	if d := domainOf(link); d != "" {
		return d
	}
	displayed = strings.TrimPrefix(strings.TrimPrefix(displayed, "https://"), "http://")
	if i := strings.IndexAny(displayed, "/ ›"); i >= 0 {
		displayed = displayed[:i]
	}
	return strings.TrimPrefix(displayed, "www.")
}

func searchAdapter(name, slug, category, engine string, def func(Defaults) Query, build func(Query) (string, []string)) adapter[SearchResults] {
	return adapter[SearchResults]{
		name:     name,
		slug:     slug,
		category: category,
		def:      def,
		fetch: func(ctx context.Context, e env, q Query) (SearchResults, error) {
			keyword, kv := build(q)
			resp, err := call[searchResponse](ctx, e, engine, params(kv...))
			if err != nil {
				return SearchResults{}, err
			}
			return resp.normalize(engine, q, keyword), nil
		},
		persist: persistSearchResults,
	}
}

func registerSearch(r *Registry) {
	register(r, searchAdapter("Google Search", "google-search", "search_rankings", "google", keywordAt,
		func(q Query) (string, []string) {
			return q.Query, []string{"q", q.Query, "location", q.Location, "num", "10"}
		}))

	register(r, searchAdapter("Competitor Keywords", "competitor-keywords", "competitive_intelligence", "google",
		func(d Defaults) Query { return Query{Query: d.CompetitorDomain, Location: "United States"} },
		func(q Query) (string, []string) {
			site := "site:" + q.Query
			return site, []string{"q", site, "location", q.Location, "num", "10"}
		}))

	register(r, searchAdapter("Google Patents", "patents", "innovation", "google_patents",
		func(d Defaults) Query { return Query{Query: d.Term() + " equipment innovation"} },
		func(q Query) (string, []string) {
			return q.Query, []string{"q", q.Query, "num", "10"}
		}))

	register(r, searchAdapter("Google Scholar", "google-scholar", "innovation", "google_scholar",
		func(d Defaults) Query { return Query{Query: d.Term() + " logistics"} },
		func(q Query) (string, []string) {
			return q.Query, []string{"q", q.Query, "num", "10"}
		}))

	register(r, searchAdapter("Bing Search", "bing-search", "search_rankings", "bing", keywordAt,
		func(q Query) (string, []string) {
			return q.Query, []string{"q", q.Query, "count", "10", "location", q.Location}
		}))

	register(r, searchAdapter("DuckDuckGo Search", "duckduckgo-search", "search_rankings", "duckduckgo", keywordAt,
		func(q Query) (string, []string) {
			return q.Query, []string{"q", q.Query, "kl", "us-en", "location", q.Location}
		}))
}

func persistSearchResults(ctx context.Context, st store.Store, data SearchResults, m Meta) error {
	rows := make([]model.SearchResult, len(data.Results))
	for i, res := range data.Results {
		res.SessionID = m.SessionID
		res.CallID = m.CallID
		rows[i] = res
	}
	return st.AddSearchResults(ctx, rows)
}
