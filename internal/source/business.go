package source

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// BusinessResults is a normalized business listing search.
type BusinessResults struct {
	Query      string           `json:"query"`
	Location   string           `json:"location"`
	Platform   model.Platform   `json:"platform"`
	Total      int              `json:"total_results"`
	Businesses []model.Business `json:"businesses"`
}

type gps struct {
	Latitude  number `json:"latitude"`
	Longitude number `json:"longitude"`
}

func (g *gps) UnmarshalJSON(b []byte) error {
	type plain gps
	var p plain
	if err := json.Unmarshal(b, &p); err == nil {
		*g = gps(p)
	}
	return nil
}

type category struct {
	Title text `json:"title"`
}

type place struct {
	Position    number         `json:"position"`
	Title       text           `json:"title"`
	PlaceID     text           `json:"place_id"`
	Link        text           `json:"link"`
	Rating      number         `json:"rating"`
	Reviews     number         `json:"reviews"`
	Price       text           `json:"price"`
	Type        text           `json:"type"`
	Category    text           `json:"category"`
	Categories  list[category] `json:"categories"`
	Address     text           `json:"address"`
	Phone       text           `json:"phone"`
	Website     text           `json:"website"`
	Hours       text           `json:"hours"`
	Coordinates gps            `json:"gps_coordinates"`
}

func (p place) business(platform model.Platform, q Query, i int) model.Business {
	b := model.Business{
		Name:       strings.TrimSpace(p.Title.String()),
		Platform:   platform,
		PlaceID:    p.PlaceID.String(),
		Rating:     p.Rating.floatPtr(),
		Reviews:    p.Reviews.intPtr(),
		Address:    p.Address.String(),
		Phone:      p.Phone.String(),
		Website:    p.Website.String(),
		Hours:      p.Hours.String(),
		Category:   p.categoryName(),
		PriceRange: p.Price.String(),
		Latitude:   p.Coordinates.Latitude.floatPtr(),
		Longitude:  p.Coordinates.Longitude.floatPtr(),
		Query:      q.Query,
		Location:   q.Location,
		Position:   position(p.Position, i),
	}
	if b.Website == "" {
		b.Website = p.Link.String()
	}
	return b
}

func (p place) categoryName() string {
	if len(p.Categories) > 0 {
		names := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			if c.Title != "" {
				names = append(names, c.Title.String())
			}
		}
		return strings.Join(names, ", ")
	}
	if p.Type != "" {
		return p.Type.String()
	}
	return p.Category.String()
}

func newBusinessResults(platform model.Platform, q Query, places []place) BusinessResults {
	out := BusinessResults{
		Query:      q.Query,
		Location:   q.Location,
		Platform:   platform,
		Businesses: make([]model.Business, 0, len(places)),
	}
	for i, p := range places {
		if strings.TrimSpace(p.Title.String()) == "" {
			continue
		}
		out.Businesses = append(out.Businesses, p.business(platform, q, i))
	}
	out.Total = len(out.Businesses)
	return out
}

type mapsResponse struct {
	LocalResults list[place] `json:"local_results"`
}

// localPack is the google engine's local_results object. Maps searches send
// an array under the same key, which decodes as an empty pack.
type localPack struct {
	Places list[place] `json:"places"`
}

func (l *localPack) UnmarshalJSON(b []byte) error {
	type plain localPack
	var p plain
	if err := json.Unmarshal(b, &p); err == nil {
		*l = localPack(p)
	}
	return nil
}

type localPackResponse struct {
	LocalResults localPack `json:"local_results"`
}

type listingsResponse struct {
	OrganicResults list[place] `json:"organic_results"`
	Places         list[place] `json:"places"`
}

func registerBusinesses(r *Registry) {
	register(r, adapter[BusinessResults]{
		name:     "Local Businesses (Maps)",
		slug:     "local-businesses",
		category: "search_rankings",
		def:      industryAt,
		fetch: func(ctx context.Context, e env, q Query) (BusinessResults, error) {
			resp, err := call[mapsResponse](ctx, e, "google_maps",
				params("q", q.Query, "ll", e.mapCenter, "type", "search", "num", "20"))
			if err != nil {
				return BusinessResults{}, err
			}
			return newBusinessResults(model.PlatformMaps, q, resp.LocalResults), nil
		},
		persist: persistBusinesses,
	})

	register(r, adapter[BusinessResults]{
		name:     "Local Pack",
		slug:     "local-pack",
		category: "search_rankings",
		def:      industryAt,
		fetch: func(ctx context.Context, e env, q Query) (BusinessResults, error) {
			resp, err := call[localPackResponse](ctx, e, "google", params("q", q.Query, "location", q.Location))
			if err != nil {
				return BusinessResults{}, err
			}
			return newBusinessResults(model.PlatformLocalPack, q, resp.LocalResults.Places), nil
		},
		persist: persistBusinesses,
	})

	register(r, adapter[BusinessResults]{
		name:     "Yelp Business Search",
		slug:     "yelp-businesses",
		category: "reviews",
		def:      industryAt,
		fetch: func(ctx context.Context, e env, q Query) (BusinessResults, error) {
			resp, err := call[listingsResponse](ctx, e, "yelp", params("find_desc", q.Query, "find_loc", q.Location))
			if err != nil {
				return BusinessResults{}, err
			}
			return newBusinessResults(model.PlatformYelp, q, resp.OrganicResults), nil
		},
		persist: persistBusinesses,
	})

	register(r, adapter[BusinessResults]{
		name:     "TripAdvisor",
		slug:     "tripadvisor",
		category: "reviews",
		def:      keywordAt,
		fetch: func(ctx context.Context, e env, q Query) (BusinessResults, error) {
			resp, err := call[listingsResponse](ctx, e, "tripadvisor", params("q", q.Query, "location", q.Location))
			if err != nil {
				return BusinessResults{}, err
			}
			places := append(resp.OrganicResults, resp.Places...)
			return newBusinessResults(model.PlatformTripAdvisor, q, places), nil
		},
		persist: persistBusinesses,
	})
}

// persistBusinesses upserts every valid listing. Listings that break the
// rating or review invariants are skipped with a warning.
func persistBusinesses(ctx context.Context, st store.Store, data BusinessResults, m Meta) error {
	valid := make([]model.Business, 0, len(data.Businesses))
	for _, b := range data.Businesses {
		if err := b.Validate(); err != nil {
			zap.L().Warn("skipping invalid listing",
				zap.String("name", b.Name),
				zap.String("platform", string(b.Platform)),
				zap.Error(err),
			)
			continue
		}
		b.SessionID = m.SessionID
		b.CallID = m.CallID
		valid = append(valid, b)
	}
	_, err := st.UpsertBusinesses(ctx, valid)
	return err
}
