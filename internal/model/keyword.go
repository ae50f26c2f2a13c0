package model

import "time"

// DifficultyLevel buckets a keyword difficulty score.
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "Easy"
	DifficultyMedium DifficultyLevel = "Medium"
	DifficultyHard   DifficultyLevel = "Hard"
)

// LevelForScore maps a 0-100 difficulty score to its level.
func LevelForScore(score int) DifficultyLevel {
	switch {
	case score < 30:
		return DifficultyEasy
	case score < 60:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// Keyword is upserted keyed by (Keyword, Location).
type Keyword struct {
	Keyword         string          `json:"keyword"`
	Location        string          `json:"location"`
	DifficultyScore int             `json:"difficulty_score"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	SearchVolume    *int            `json:"search_volume,omitempty"`
	OrganicResults  int             `json:"organic_results"`
	PaidAds         int             `json:"paid_ads"`
	SessionID       string          `json:"session_id,omitempty"`
	CallID          string          `json:"call_id,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RegionalInterest is one region's interest in a keyword. Rank is 1-based,
// with rank 1 holding the highest interest.
type RegionalInterest struct {
	Keyword   string    `json:"keyword"`
	Country   string    `json:"country"`
	Region    string    `json:"region"`
	Interest  int       `json:"interest"`
	Rank      int       `json:"rank"`
	SessionID string    `json:"session_id,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VolumeSample is a search-interest observation. Summary samples carry the
// aggregate statistics of a date range and have an empty TimelineDate.
type VolumeSample struct {
	Keyword      string    `json:"keyword"`
	Location     string    `json:"location"`
	DateRange    string    `json:"date_range"`
	TimelineDate string    `json:"timeline_date,omitempty"`
	Interest     float64   `json:"interest"`
	AvgInterest  *float64  `json:"avg_interest,omitempty"`
	Trend        string    `json:"trend,omitempty"`
	Volatility   *float64  `json:"volatility,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	CallID       string    `json:"call_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
