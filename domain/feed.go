package domain

import (
	"time"
)

// Feed is a registered article source.
type Feed struct {
	CreatedAt     time.Time  `db:"created_at"`
	LastFetchedAt *time.Time `db:"last_fetched_at"`
	URL           string     `db:"url"`
	Title         string     `db:"title"`
	SiteURL       string     `db:"site_url"`
	Category      string     `db:"category"`
	ID            int64      `db:"id"`
	Enabled       bool       `db:"enabled"`
}

// Label returns a human-readable identifier for logs.
func (f *Feed) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.URL
}

// IngestResult reports the outcome of one feed's fetch within a cycle.
type IngestResult struct {
	Feed     string
	NewCount int
	Err      error
}
