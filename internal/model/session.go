package model

import "time"

// Session groups repeated calls for one (industry, location) pair. It is a
// reporting key only.
type Session struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Industry    string     `json:"industry"`
	Location    string     `json:"location"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Open reports whether the session has not been completed.
func (s Session) Open() bool {
	return s.CompletedAt == nil
}
