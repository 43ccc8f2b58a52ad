package domain

import "time"

// Status of a Lead in the cumulative store. Leads are never deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusStale    Status = "stale"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusStale, StatusRejected:
		return true
	}
	return false
}

// Lead is the durable, deduplicated record.
type Lead struct {
	ID          string
	Origin      string
	URL         string
	Title       string
	Excerpt     string
	Agency      string
	ClosingDate string
	Tags        []string

	// Score inputs are persisted so a re-merge recomputes from the same values.
	Confidence    float64
	ProjectWeight float64
	Recency       float64
	Trust         float64
	Score         float64

	Status    Status
	FirstSeen time.Time
	LastSeen  time.Time
	PostedAt  *time.Time
	LastRunID string
}
