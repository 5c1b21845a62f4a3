package domain

import (
	"time"
)

// Article represents a content candidate produced by ingestion.
// Articles are deduplicated by URL and never physically deleted;
// retention flips IsArchived instead. FeedID is zero once the source
// feed has been removed.
type Article struct {
	FetchedAt    time.Time  `db:"fetched_at"`
	PublishedAt  *time.Time `db:"published_at"`
	URL          string     `db:"url"`
	Title        string     `db:"title"`
	Author       string     `db:"author"`
	Summary      string     `db:"summary"`
	Content      string     `db:"content"`
	ID           int64      `db:"id"`
	FeedID       int64      `db:"feed_id"`
	IsRead       bool       `db:"is_read"`
	IsBookmarked bool       `db:"is_bookmarked"`
	IsArchived   bool       `db:"is_archived"`
}

// EffectivePublishedAt returns the timestamp used for age computation:
// published_at when the feed provided one, fetched_at otherwise.
// Returns nil when neither is known.
func (a *Article) EffectivePublishedAt() *time.Time {
	if a.PublishedAt != nil {
		return a.PublishedAt
	}
	if !a.FetchedAt.IsZero() {
		t := a.FetchedAt
		return &t
	}
	return nil
}

// Score is the oracle's evaluation of an article, 1:1 with Article.
// Upserts are idempotent; Rank is materialized by the cycle.
type Score struct {
	ScoredAt     time.Time `db:"scored_at"`
	Summary      string    `db:"summary"`
	Reason       string    `db:"reason"`
	Topics       []string  `db:"topics"`
	ArticleID    int64     `db:"article_id"`
	Relevance    float64   `db:"relevance"`
	Significance float64   `db:"significance"`
	Confidence   float64   `db:"confidence"`
	Rank         float64   `db:"rank"`
}

// ScoredArticle pairs an article with its score for ranking and listing.
type ScoredArticle struct {
	Article *Article
	Score   *Score
}

// ArticleFilter narrows the default article listing.
type ArticleFilter struct {
	FeedID          int64
	MinRelevance    float64
	ScoredOnly      bool
	IncludeArchived bool
	Limit           int
	Offset          int
}
