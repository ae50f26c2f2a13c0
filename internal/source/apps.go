package source

import "context"

// App is an app store listing.
type App struct {
	Name      string   `json:"app_name"`
	ID        string   `json:"app_id,omitempty"`
	Developer string   `json:"developer,omitempty"`
	Link      string   `json:"link,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Reviews   *int     `json:"reviews_count,omitempty"`
	Price     string   `json:"price"`
	Category  string   `json:"category,omitempty"`
	Downloads string   `json:"downloads,omitempty"`
	Position  int      `json:"position"`
}

// AppResults is a normalized app store search.
type AppResults struct {
	Store   string `json:"store"`
	Query   string `json:"query"`
	Country string `json:"country"`
	Total   int    `json:"total_results"`
	Apps    []App  `json:"apps"`
}

type appItem struct {
	Position  number `json:"position"`
	Title     text   `json:"title"`
	ProductID text   `json:"product_id"`
	ID        text   `json:"id"`
	Developer text   `json:"developer"`
	Link      text   `json:"link"`
	Rating    number `json:"rating"`
	Reviews   number `json:"reviews"`
	Price     text   `json:"price"`
	Category  text   `json:"category"`
	Downloads text   `json:"downloads"`
}

type appsResponse struct {
	OrganicResults list[appItem] `json:"organic_results"`
	// Play Store results come in sections with their own item lists.
	Sections list[struct {
		Items list[appItem] `json:"items"`
	}] `json:"organic_results_sections"`
}

func (r appsResponse) items() []appItem {
	items := append([]appItem(nil), r.OrganicResults...)
	for _, s := range r.Sections {
		items = append(items, s.Items...)
	}
	return items
}

func newAppResults(storeName string, q Query, items []appItem) AppResults {
	out := AppResults{Store: storeName, Query: q.Query, Country: q.Location, Apps: make([]App, 0, len(items))}
	for i, it := range items {
		if it.Title == "" {
			continue
		}
		out.Apps = append(out.Apps, App{
			Name:      it.Title.String(),
			ID:        firstOf(it.ProductID.String(), it.ID.String()),
			Developer: it.Developer.String(),
			Link:      it.Link.String(),
			Rating:    it.Rating.floatPtr(),
			Reviews:   it.Reviews.intPtr(),
			Price:     firstOf(it.Price.String(), "Free"),
			Category:  it.Category.String(),
			Downloads: it.Downloads.String(),
			Position:  position(it.Position, i),
		})
	}
	out.Total = len(out.Apps)
	return out
}

func registerApps(r *Registry) {
	register(r, adapter[AppResults]{
		name:     "Apple App Store",
		slug:     "apple-apps",
		category: "app_stores",
		def:      func(d Defaults) Query { return Query{Query: d.Term() + " calculator", Location: "us"} },
		fetch: func(ctx context.Context, e env, q Query) (AppResults, error) {
			resp, err := call[appsResponse](ctx, e, "apple_app_store", params("term", q.Query, "country", q.Location))
			if err != nil {
				return AppResults{}, err
			}
			return newAppResults("apple", q, resp.items()), nil
		},
	})

	register(r, adapter[AppResults]{
		name:     "Google Play Store",
		slug:     "google-play-apps",
		category: "app_stores",
		def:      func(d Defaults) Query { return Query{Query: d.Term() + " planner", Location: "us"} },
		fetch: func(ctx context.Context, e env, q Query) (AppResults, error) {
			resp, err := call[appsResponse](ctx, e, "google_play", params("q", q.Query, "store", "apps", "gl", q.Location))
			if err != nil {
				return AppResults{}, err
			}
			return newAppResults("google_play", q, resp.items()), nil
		},
	})
}
