package models

import "time"

type Complaint struct {
	ID            string    `json:"id"`
	UserID        *string   `json:"user_id,omitempty"`
	Anonymous     bool      `json:"anonymous"`
	RawText       string    `json:"raw_text"`
	RewrittenText string    `json:"rewritten_text"`
	Category      string    `json:"category"`
	Severity      Severity  `json:"severity"`
	SeverityScore int       `json:"severity_score"`
	SeverityLayer string    `json:"severity_layer"`
	Embedding     []float64 `json:"-"`
	ClusterID     *string   `json:"cluster_id"`
	Upvotes       int       `json:"upvotes"`
	CreatedAt     time.Time `json:"created_at"`
}

type Cluster struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Severity       Severity       `json:"severity"`
	SeverityCounts SeverityCounts `json:"severity_counts"`
	MemberCount    int            `json:"member_count"`
	Centroid       []float64      `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	LastUpdated    time.Time      `json:"last_updated"`
}

type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Add returns a copy with the bucket for s incremented.
func (c SeverityCounts) Add(s Severity) SeverityCounts {
	switch s {
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	default:
		c.Low++
	}
	return c
}

// Dominant returns the most populated severity. Ties resolve to the
// higher severity.
func (c SeverityCounts) Dominant() Severity {
	switch {
	case c.High >= c.Medium && c.High >= c.Low && c.High > 0:
		return SeverityHigh
	case c.Medium >= c.Low && c.Medium > 0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ClusterActivity is a cluster together with the number of its members
// created inside a reporting window.
type ClusterActivity struct {
	Cluster     Cluster `json:"cluster"`
	RecentCount int     `json:"recent_count"`
}
