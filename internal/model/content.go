package model

import "time"

// SearchResult is one organic result from a web, scholar or patent search.
type SearchResult struct {
	Keyword   string    `json:"keyword"`
	Location  string    `json:"location,omitempty"`
	Engine    string    `json:"engine"`
	Position  int       `json:"position"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Snippet   string    `json:"snippet,omitempty"`
	Domain    string    `json:"domain,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentKind distinguishes media results.
type ContentKind string

const (
	ContentNews  ContentKind = "news"
	ContentVideo ContentKind = "video"
	ContentImage ContentKind = "image"
)

// ContentItem is a news article, video or image result.
type ContentItem struct {
	Kind      ContentKind `json:"kind"`
	Query     string      `json:"query"`
	Title     string      `json:"title"`
	Link      string      `json:"link"`
	Source    string      `json:"source,omitempty"`
	Published string      `json:"published,omitempty"`
	Snippet   string      `json:"snippet,omitempty"`
	Thumbnail string      `json:"thumbnail,omitempty"`
	Views     *int64      `json:"views,omitempty"`
	Duration  string      `json:"duration,omitempty"`
	Position  int         `json:"position"`
	SessionID string      `json:"session_id,omitempty"`
	CallID    string      `json:"call_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Product is a shopping result from any marketplace.
type Product struct {
	Query     string    `json:"query"`
	Engine    string    `json:"engine"`
	Title     string    `json:"title"`
	Link      string    `json:"link,omitempty"`
	Source    string    `json:"source,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	PriceText string    `json:"price_text,omitempty"`
	Rating    *float64  `json:"rating,omitempty"`
	Reviews   *int      `json:"reviews,omitempty"`
	Position  int       `json:"position"`
	SessionID string    `json:"session_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Job is a job posting.
type Job struct {
	Query     string    `json:"query"`
	Location  string    `json:"location"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Via       string    `json:"via,omitempty"`
	Link      string    `json:"link,omitempty"`
	Salary    string    `json:"salary,omitempty"`
	Posted    string    `json:"posted,omitempty"`
	Position  int       `json:"position"`
	SessionID string    `json:"session_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Question is a "people also ask" entry.
type Question struct {
	Keyword   string    `json:"keyword"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer,omitempty"`
	Link      string    `json:"link,omitempty"`
	Position  int       `json:"position"`
	SessionID string    `json:"session_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RelatedSearch is a related query suggested by the search engine.
type RelatedSearch struct {
	Keyword   string    `json:"keyword"`
	Related   string    `json:"related"`
	Link      string    `json:"link,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Suggestion is an autocomplete or keyword suggestion for a seed keyword.
// Relevance is the provider's relevance score when it sends one.
type Suggestion struct {
	Keyword    string    `json:"keyword"`
	Suggestion string    `json:"suggestion"`
	Relevance  int       `json:"relevance"`
	Type       string    `json:"type,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	CallID     string    `json:"call_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
