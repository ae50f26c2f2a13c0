package model

import (
	"encoding/json"
	"time"
)

// Status is the outcome of a provider call or of an aggregation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// CallRecord is one entry of the append-only provider call log. Records are
// never mutated once written.
type CallRecord struct {
	ID             string          `json:"id"`
	Endpoint       string          `json:"endpoint"`
	Query          string          `json:"query"`
	Location       string          `json:"location"`
	Status         Status          `json:"status"`
	ResponseTimeMS int64           `json:"response_time_ms"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	RawResponse    json.RawMessage `json:"raw_response,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Succeeded reports whether the call completed successfully.
func (c CallRecord) Succeeded() bool {
	return c.Status == StatusSuccess
}

// Age returns how long ago the call was recorded relative to now.
func (c CallRecord) Age(now time.Time) time.Duration {
	return now.Sub(c.CreatedAt)
}
