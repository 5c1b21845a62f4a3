package service

import (
	"context"
	"time"

	"attentiond/domain"
)

// IngestService fetches all enabled feeds and stores new articles.
type IngestService interface {
	IngestAll(ctx context.Context) ([]domain.IngestResult, int, error)
}

// ScorerService evaluates unscored articles against the oracle.
type ScorerService interface {
	ScoreUnscored(ctx context.Context, since time.Time) (*domain.ScoringResult, error)
	RescoreRecent(ctx context.Context, cutoff time.Time) (*domain.ScoringResult, error)
}

// AdapterService turns accumulated feedback signals into weight updates.
type AdapterService interface {
	Tick(ctx context.Context) (*domain.AdaptationResult, error)
}

// RankService recomputes and persists composite ranks.
type RankService interface {
	MaterializeRanks(ctx context.Context, now time.Time) (int, error)
}

// RetentionService soft-archives aged, low-rank, non-exempt articles.
type RetentionService interface {
	Archive(ctx context.Context, now time.Time) ([]int64, error)
}

// ProfileService manages the interest profile and the rescore flag.
type ProfileService interface {
	Get(ctx context.Context) (*domain.InterestProfile, error)
	Update(ctx context.Context, profile *domain.InterestProfile) (bool, error)
	SeedIfEmpty(ctx context.Context, path string) (bool, error)
	NeedsRescore(ctx context.Context) (bool, error)
	SetNeedsRescore(ctx context.Context, value bool) error
}

// FeedbackService is the sole write path into the signal store.
type FeedbackService interface {
	Record(ctx context.Context, articleID int64, kind domain.SignalKind, magnitude float64, topic string) ([]*domain.FeedbackSignal, error)
}

// ReaderService serves ranked article listings.
type ReaderService interface {
	ForYou(ctx context.Context, limit int, cursor string) (*RankedPage, error)
}

// RankedPage is one page of the ranked listing with its continuation
// cursor.
type RankedPage struct {
	Articles   []*RankedArticle
	NextCursor string
}

// RankedArticle pairs a scored article with its live composite rank.
type RankedArticle struct {
	Article *domain.Article
	Score   *domain.Score
	Rank    float64
}
