package source

import (
	"context"

	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/store"
)

// MarketSummary is the market status block of a finance search.
type MarketSummary struct {
	Status        string `json:"market_status,omitempty"`
	Time          string `json:"market_time,omitempty"`
	Change        string `json:"market_change,omitempty"`
	ChangePercent string `json:"market_change_percent,omitempty"`
}

// Stock is a quoted security.
type Stock struct {
	Name          string `json:"name"`
	Ticker        string `json:"ticker"`
	Price         string `json:"price,omitempty"`
	Change        string `json:"change,omitempty"`
	ChangePercent string `json:"change_percent,omitempty"`
	MarketCap     string `json:"market_cap,omitempty"`
	Volume        string `json:"volume,omitempty"`
}

// FinanceQuote is a normalized finance search.
type FinanceQuote struct {
	Query   string              `json:"query"`
	Summary *MarketSummary      `json:"market_summary,omitempty"`
	Stocks  []Stock             `json:"stocks"`
	News    []model.ContentItem `json:"news"`
}

type financeResponse struct {
	MarketSummary opt[struct {
		MarketStatus        text `json:"market_status"`
		MarketTime          text `json:"market_time"`
		MarketChange        text `json:"market_change"`
		MarketChangePercent text `json:"market_change_percent"`
	}] `json:"market_summary"`
	Stocks list[struct {
		Name          text `json:"name"`
		Ticker        text `json:"ticker"`
		Stock         text `json:"stock"`
		Price         text `json:"price"`
		Change        text `json:"change"`
		ChangePercent text `json:"change_percent"`
		MarketCap     text `json:"market_cap"`
		Volume        text `json:"volume"`
	}] `json:"stocks"`
	News list[mediaItem] `json:"news"`
}

func (r financeResponse) normalize(q Query, maxStocks int) FinanceQuote {
	out := FinanceQuote{Query: q.Query, Stocks: []Stock{}, News: make([]model.ContentItem, 0, len(r.News))}
	if r.MarketSummary.Set {
		ms := r.MarketSummary.V
		out.Summary = &MarketSummary{
			Status:        ms.MarketStatus.String(),
			Time:          ms.MarketTime.String(),
			Change:        ms.MarketChange.String(),
			ChangePercent: ms.MarketChangePercent.String(),
		}
	}
	for _, s := range r.Stocks {
		if maxStocks > 0 && len(out.Stocks) == maxStocks {
			break
		}
		out.Stocks = append(out.Stocks, Stock{
			Name:          s.Name.String(),
			Ticker:        firstOf(s.Ticker.String(), s.Stock.String()),
			Price:         s.Price.String(),
			Change:        s.Change.String(),
			ChangePercent: s.ChangePercent.String(),
			MarketCap:     s.MarketCap.String(),
			Volume:        s.Volume.String(),
		})
	}
	for i, n := range r.News {
		out.News = append(out.News, n.content(model.ContentNews, q, i))
	}
	return out
}

func registerFinance(r *Registry) {
	register(r, adapter[FinanceQuote]{
		name:     "Google Finance",
		slug:     "google-finance",
		category: "financial",
		def:      func(d Defaults) Query { return Query{Query: d.Term() + " transportation"} },
		fetch: func(ctx context.Context, e env, q Query) (FinanceQuote, error) {
			resp, err := call[financeResponse](ctx, e, "google_finance", params("q", q.Query, "num", "10"))
			if err != nil {
				return FinanceQuote{}, err
			}
			return resp.normalize(q, 0), nil
		},
		persist: persistFinanceNews,
	})

	register(r, adapter[FinanceQuote]{
		name:     "Market Trends",
		slug:     "market-trends",
		category: "financial",
		def:      func(Defaults) Query { return Query{Query: "transportation"} },
		fetch: func(ctx context.Context, e env, q Query) (FinanceQuote, error) {
			resp, err := call[financeResponse](ctx, e, "google_finance",
				params("q", q.Query+" stocks market trends", "num", "20"))
			if err != nil {
				return FinanceQuote{}, err
			}
			return resp.normalize(q, 10), nil
		},
	})
}

// persistFinanceNews stores the news attached to a finance search.
func persistFinanceNews(ctx context.Context, st store.Store, data FinanceQuote, m Meta) error {
	rows := make([]model.ContentItem, len(data.News))
	for i, n := range data.News {
		n.SessionID, n.CallID = m.SessionID, m.CallID
		rows[i] = n
	}
	return st.AddContent(ctx, rows)
}
