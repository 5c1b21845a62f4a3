package repository

import (
	"context"
	"time"

	"attentiond/domain"
)

// FeedRepository handles feed source persistence.
type FeedRepository interface {
	Create(ctx context.Context, feed *domain.Feed) error
	List(ctx context.Context, enabledOnly bool) ([]*domain.Feed, error)
	FindByID(ctx context.Context, feedID int64) (*domain.Feed, error)
	Delete(ctx context.Context, feedID int64) error
	SetEnabled(ctx context.Context, feedID int64, enabled bool) error
	MarkFetched(ctx context.Context, feedID int64, at time.Time) error
}

// ArticleRepository handles article persistence and state flags.
type ArticleRepository interface {
	Upsert(ctx context.Context, article *domain.Article) (bool, error)
	FindByID(ctx context.Context, articleID int64) (*domain.Article, error)
	FindUnscored(ctx context.Context, since time.Time, limit int) ([]*domain.Article, error)
	List(ctx context.Context, filter domain.ArticleFilter) ([]*domain.ScoredArticle, error)
	ListScored(ctx context.Context) ([]*domain.ScoredArticle, error)
	RetentionCandidates(ctx context.Context, cutoff time.Time, rankThreshold float64) ([]*domain.ScoredArticle, error)
	Archive(ctx context.Context, articleIDs []int64) (int, error)
	SetRead(ctx context.Context, articleID int64, read bool) error
	SetBookmarked(ctx context.Context, articleID int64, bookmarked bool) error
	LikedIDs(ctx context.Context) (map[int64]struct{}, error)
	Stats(ctx context.Context) (*domain.StoreStats, error)
}

// ScoreRepository handles oracle score persistence and rank materialization.
type ScoreRepository interface {
	Upsert(ctx context.Context, score *domain.Score) error
	FindByArticleID(ctx context.Context, articleID int64) (*domain.Score, error)
	UpdateRanks(ctx context.Context, ranks map[int64]float64) error
	DeleteFetchedAfter(ctx context.Context, cutoff time.Time) (int64, error)
}

// SignalRepository handles feedback signals and per-topic counters.
type SignalRepository interface {
	Record(ctx context.Context, signal *domain.FeedbackSignal) error
	ListSince(ctx context.Context, afterID int64) ([]*domain.FeedbackSignal, error)
	Counters(ctx context.Context) (map[string]*domain.SignalCounters, error)
	ApplyAdaptation(ctx context.Context, counters map[string]*domain.SignalCounters, weights map[string]float64, watermark int64, now time.Time) error
}

// ProfileRepository handles the interest profile and daemon preferences.
type ProfileRepository interface {
	Topics(ctx context.Context) ([]domain.InterestTopic, error)
	ReplaceTopics(ctx context.Context, topics []domain.InterestTopic, now time.Time) error
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

// CycleStateRepository handles the orchestrator's persistent state row.
type CycleStateRepository interface {
	Get(ctx context.Context) (*domain.CycleState, error)
	Update(ctx context.Context, state *domain.CycleState) error
}

// ScoreOracle evaluates articles against the interest profile.
type ScoreOracle interface {
	Evaluate(ctx context.Context, article *domain.Article, profile *domain.InterestProfile) (*domain.ScoreResult, error)
}
