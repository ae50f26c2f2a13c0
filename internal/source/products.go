package source

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// ProductResults is a normalized marketplace search.
type ProductResults struct {
	Engine   string          `json:"engine"`
	Query    string          `json:"query"`
	Total    int             `json:"total_results"`
	Products []model.Product `json:"products"`
}

// price decodes a bare price or an {"value": .., "raw": ..} object.
type price struct {
	value number
	raw   string
}

func (p *price) UnmarshalJSON(b []byte) error {
	*p = price{}
	var n number
	_ = n.UnmarshalJSON(b)
	if n.valid {
		var s text
		_ = s.UnmarshalJSON(b)
		*p = price{value: n, raw: s.String()}
		return nil
	}
	var o struct {
		Value number `json:"value"`
		Raw   text   `json:"raw"`
	}
	if err := json.Unmarshal(b, &o); err == nil {
		*p = price{value: o.Value, raw: o.Raw.String()}
	}
	return nil
}

type productItem struct {
	Position       number `json:"position"`
	Title          text   `json:"title"`
	Link           text   `json:"link"`
	ProductLink    text   `json:"product_link"`
	ProductPageURL text   `json:"product_page_url"`
	Source         text   `json:"source"`
	SellerName     text   `json:"seller_name"`
	Price          price  `json:"price"`
	ExtractedPrice number `json:"extracted_price"`
	Rating         number `json:"rating"`
	Reviews        number `json:"reviews"`
	RatingsTotal   number `json:"ratings_total"`
	PrimaryOffer   opt[struct {
		OfferPrice number `json:"offer_price"`
	}] `json:"primary_offer"`
}

func (it productItem) product(engine, source string, q Query, i int) model.Product {
	p := model.Product{
		Query:     q.Query,
		Engine:    engine,
		Title:     it.Title.String(),
		Link:      firstOf(it.Link.String(), it.ProductLink.String(), it.ProductPageURL.String()),
		Source:    firstOf(it.Source.String(), it.SellerName.String(), source),
		Price:     it.ExtractedPrice.floatPtr(),
		PriceText: it.Price.raw,
		Rating:    it.Rating.floatPtr(),
		Reviews:   it.Reviews.intPtr(),
		Position:  position(it.Position, i),
	}
	if p.Price == nil {
		p.Price = it.Price.value.floatPtr()
	}
	if p.Price == nil && it.PrimaryOffer.Set {
		p.Price = it.PrimaryOffer.V.OfferPrice.floatPtr()
	}
	if p.PriceText == "" && p.Price != nil {
		p.PriceText = "$" + strconv.FormatFloat(*p.Price, 'f', 2, 64)
	}
	if p.Reviews == nil {
		p.Reviews = it.RatingsTotal.intPtr()
	}
	return p
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type productResponse struct {
	ShoppingResults list[productItem] `json:"shopping_results"`
	OrganicResults  list[productItem] `json:"organic_results"`
}

func newProductResults(engine, source string, q Query, items []productItem) ProductResults {
	out := ProductResults{Engine: engine, Query: q.Query, Products: make([]model.Product, 0, len(items))}
	for i, it := range items {
		if it.Title == "" {
			continue
		}
		out.Products = append(out.Products, it.product(engine, source, q, i))
	}
	out.Total = len(out.Products)
	return out
}

func registerProducts(r *Registry) {
	supplies := func(d Defaults) Query { return Query{Query: d.Term() + " supplies", Location: d.Location} }

	register(r, adapter[ProductResults]{
		name:     "Shopping Search",
		slug:     "shopping-search",
		category: "ecommerce",
		def:      supplies,
		fetch: func(ctx context.Context, e env, q Query) (ProductResults, error) {
			resp, err := call[productResponse](ctx, e, "google_shopping", params("q", q.Query, "location", q.Location, "num", "20"))
			if err != nil {
				return ProductResults{}, err
			}
			return newProductResults("google_shopping", "", q, resp.ShoppingResults), nil
		},
		persist: persistProducts,
	})

	register(r, adapter[ProductResults]{
		name:     "Amazon Products",
		slug:     "amazon-products",
		category: "ecommerce",
		def:      func(d Defaults) Query { return Query{Query: d.Term() + " supplies", Location: "amazon.com"} },
		fetch: func(ctx context.Context, e env, q Query) (ProductResults, error) {
			domain := firstOf(q.Location, "amazon.com")
			resp, err := call[productResponse](ctx, e, "amazon", params("q", q.Query, "amazon_domain", domain))
			if err != nil {
				return ProductResults{}, err
			}
			return newProductResults("amazon", "Amazon", q, resp.OrganicResults), nil
		},
		persist: persistProducts,
	})

	register(r, adapter[ProductResults]{
		name:     "Walmart Products",
		slug:     "walmart-products",
		category: "ecommerce",
		def:      func(d Defaults) Query { return Query{Query: d.Term() + " supplies"} },
		fetch: func(ctx context.Context, e env, q Query) (ProductResults, error) {
			resp, err := call[productResponse](ctx, e, "walmart", params("query", q.Query))
			if err != nil {
				return ProductResults{}, err
			}
			return newProductResults("walmart", "Walmart", q, resp.OrganicResults), nil
		},
		persist: persistProducts,
	})
}

func persistProducts(ctx context.Context, st store.Store, data ProductResults, m Meta) error {
	rows := make([]model.Product, len(data.Products))
	for i, p := range data.Products {
		p.SessionID, p.CallID = m.SessionID, m.CallID
		rows[i] = p
	}
	return st.AddProducts(ctx, rows)
}
