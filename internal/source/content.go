package source

import (
	"context"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// ContentResults is a normalized news, video or image search.
type ContentResults struct {
	Kind     model.ContentKind   `json:"kind"`
	Query    string              `json:"query"`
	Location string              `json:"location,omitempty"`
	Total    int                 `json:"total_results"`
	Items    []model.ContentItem `json:"items"`
}

// thumb decodes either a thumbnail URL or a {"static": url} object.
type thumb string

func (t *thumb) UnmarshalJSON(b []byte) error {
	var s text
	_ = s.UnmarshalJSON(b)
	if s != "" {
		*t = thumb(s)
		return nil
	}
	var o opt[struct {
		Static text `json:"static"`
	}]
	_ = o.UnmarshalJSON(b)
	*t = thumb(o.V.Static)
	return nil
}

type channel struct {
	Name text `json:"name"`
}

type mediaItem struct {
	Position      number       `json:"position"`
	Title         text         `json:"title"`
	Link          text         `json:"link"`
	Original      text         `json:"original"`
	Source        text         `json:"source"`
	Date          text         `json:"date"`
	PublishedDate text         `json:"published_date"`
	Snippet       text         `json:"snippet"`
	Description   text         `json:"description"`
	Thumbnail     thumb        `json:"thumbnail"`
	Views         number       `json:"views"`
	Length        text         `json:"length"`
	Channel       opt[channel] `json:"channel"`
}

func (m mediaItem) content(kind model.ContentKind, q Query, i int) model.ContentItem {
	item := model.ContentItem{
		Kind:      kind,
		Query:     q.Query,
		Title:     m.Title.String(),
		Link:      m.Link.String(),
		Source:    m.Source.String(),
		Published: m.Date.String(),
		Snippet:   m.Snippet.String(),
		Thumbnail: string(m.Thumbnail),
		Views:     m.Views.int64Ptr(),
		Duration:  m.Length.String(),
		Position:  position(m.Position, i),
	}
	if item.Published == "" {
		item.Published = m.PublishedDate.String()
	}
	if item.Snippet == "" {
		item.Snippet = m.Description.String()
	}
	if item.Source == "" && m.Channel.Set {
		item.Source = m.Channel.V.Name.String()
	}
	if kind == model.ContentImage && m.Original != "" {
		item.Link = m.Original.String()
	}
	return item
}

type mediaResponse struct {
	ImagesResults list[mediaItem] `json:"images_results"`
	NewsResults   list[mediaItem] `json:"news_results"`
	VideoResults  list[mediaItem] `json:"video_results"`
}

func newContentResults(kind model.ContentKind, q Query, items []mediaItem, limit int) ContentResults {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := ContentResults{Kind: kind, Query: q.Query, Location: q.Location, Items: make([]model.ContentItem, 0, len(items))}
	for i, m := range items {
		out.Items = append(out.Items, m.content(kind, q, i))
	}
	out.Total = len(out.Items)
	return out
}

func registerContent(r *Registry) {
	register(r, adapter[ContentResults]{
		name:     "Image Search",
		slug:     "image-search",
		category: "media_content",
		def:      func(d Defaults) Query { return Query{Query: d.Keyword} },
		fetch: func(ctx context.Context, e env, q Query) (ContentResults, error) {
			resp, err := call[mediaResponse](ctx, e, "google_images", params("q", q.Query, "num", "20"))
			if err != nil {
				return ContentResults{}, err
			}
			return newContentResults(model.ContentImage, q, resp.ImagesResults, 20), nil
		},
		persist: persistContent,
	})

	register(r, adapter[ContentResults]{
		name:     "News Search",
		slug:     "news-search",
		category: "media_content",
		def:      keywordAt,
		fetch: func(ctx context.Context, e env, q Query) (ContentResults, error) {
			resp, err := call[mediaResponse](ctx, e, "google",
				params("q", q.Query, "tbm", "nws", "location", q.Location, "tbs", "qdr:m", "num", "20"))
			if err != nil {
				return ContentResults{}, err
			}
			return newContentResults(model.ContentNews, q, resp.NewsResults, 20), nil
		},
		persist: persistContent,
	})

	register(r, adapter[ContentResults]{
		name:     "YouTube Search",
		slug:     "youtube-videos",
		category: "media_content",
		def:      func(d Defaults) Query { return Query{Query: d.Keyword + " tips"} },
		fetch: func(ctx context.Context, e env, q Query) (ContentResults, error) {
			resp, err := call[mediaResponse](ctx, e, "youtube", params("search_query", q.Query))
			if err != nil {
				return ContentResults{}, err
			}
			return newContentResults(model.ContentVideo, q, resp.VideoResults, 10), nil
		},
		persist: persistContent,
	})
}

func persistContent(ctx context.Context, st store.Store, data ContentResults, m Meta) error {
	rows := make([]model.ContentItem, len(data.Items))
	for i, item := range data.Items {
		item.SessionID, item.CallID = m.SessionID, m.CallID
		rows[i] = item
	}
	return st.AddContent(ctx, rows)
}
