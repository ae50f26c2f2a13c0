package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Platform identifies where a business listing was found.
type Platform string

const (
	PlatformMaps        Platform = "maps"
	PlatformLocalPack   Platform = "local_pack"
	PlatformYelp        Platform = "yelp"
	PlatformTripAdvisor Platform = "tripadvisor"
)

var (
	// ErrInvalidRating is returned for ratings outside [0,5].
	ErrInvalidRating = eris.New("rating out of range [0,5]")
	// ErrInvalidReviews is returned for negative review counts.
	ErrInvalidReviews = eris.New("review count is negative")
)

// Business is a normalized business listing. Listings are upserted keyed by
// (Name, Platform); a later write overwrites an earlier one.
type Business struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Platform   Platform  `json:"platform"`
	PlaceID    string    `json:"place_id,omitempty"`
	Rating     *float64  `json:"rating,omitempty"`
	Reviews    *int      `json:"reviews,omitempty"`
	Address    string    `json:"address,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Website    string    `json:"website,omitempty"`
	Hours      string    `json:"hours,omitempty"`
	Category   string    `json:"category,omitempty"`
	PriceRange string    `json:"price_range,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Query      string    `json:"query,omitempty"`
	Location   string    `json:"location,omitempty"`
	Position   int       `json:"position"`
	SessionID  string    `json:"session_id,omitempty"`
	CallID     string    `json:"call_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are present.
// Listings without them are excluded from every spatial computation.
func (b Business) HasCoordinates() bool {
	return b.Latitude != nil && b.Longitude != nil
}

// ReviewCount returns the review count, treating an absent count as zero.
func (b Business) ReviewCount() int {
	if b.Reviews == nil {
		return 0
	}
	return *b.Reviews
}

// Validate checks the rating and review invariants.
func (b Business) Validate() error {
	if b.Name == "" {
		return eris.New("business name is empty")
	}
	if b.Rating != nil && !(*b.Rating >= 0 && *b.Rating <= 5) {
		return eris.Wrapf(ErrInvalidRating, "business %q rating %v", b.Name, *b.Rating)
	}
	if b.Reviews != nil && *b.Reviews < 0 {
		return eris.Wrapf(ErrInvalidReviews, "business %q reviews %d", b.Name, *b.Reviews)
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
