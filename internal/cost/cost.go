// Package cost estimates search provider spend from the call log.
package cost

// Rates holds the provider plan pricing. The provider bills a flat monthly
// fee for a number of included searches; cache hits are free.
type Rates struct {
	PlanMonthly      float64 `yaml:"plan_monthly" mapstructure:"plan_monthly"`
	SearchesIncluded int     `yaml:"searches_included" mapstructure:"searches_included"`
}

// DefaultRates returns the pricing of the provider's entry plan.
func DefaultRates() Rates {
	return Rates{PlanMonthly: 75.00, SearchesIncluded: 5000}
}

// Calculator computes costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// PerSearch returns the effective price of one search.
func (c *Calculator) PerSearch() float64 {
	if c.rates.SearchesIncluded <= 0 {
		return 0
	}
	return c.rates.PlanMonthly / float64(c.rates.SearchesIncluded)
}

// Usage summarizes provider calls over a billing window.
type Usage struct {
	Calls        int     `json:"calls"`
	Included     int     `json:"included"`
	Remaining    int     `json:"remaining"`
	UsedPct      float64 `json:"used_pct"`
	EstimatedUSD float64 `json:"estimated_usd"`
}

// Usage reports how much of the plan calls provider calls consume. Remaining
// never goes below zero.
func (c *Calculator) Usage(calls int) Usage {
	u := Usage{
		Calls:        calls,
		Included:     c.rates.SearchesIncluded,
		Remaining:    max(c.rates.SearchesIncluded-calls, 0),
		EstimatedUSD: float64(calls) * c.PerSearch(),
	}
	if c.rates.SearchesIncluded > 0 {
		u.UsedPct = float64(calls) / float64(c.rates.SearchesIncluded) * 100
	}
	return u
}
