package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"attentiond/domain"
	"attentiond/driver"
)

// ScoreRepository implementation.
type scoreRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sql.DB, logger *slog.Logger) ScoreRepository {
	return &scoreRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert stores or replaces the score for an article.
func (r *scoreRepository) Upsert(ctx context.Context, score *domain.Score) error {
	if err := driver.UpsertScore(ctx, r.db, score); err != nil {
		r.logger.ErrorContext(ctx, "failed to upsert score", "error", err, "article_id", score.ArticleID)
		return fmt.Errorf("failed to upsert score: %w", err)
	}

	r.logger.InfoContext(ctx, "score stored", "article_id", score.ArticleID, "relevance", score.Relevance)

	return nil
}

// FindByArticleID returns the score for an article, nil when unscored.
func (r *scoreRepository) FindByArticleID(ctx context.Context, articleID int64) (*domain.Score, error) {
	score, err := driver.GetScoreByArticleID(ctx, r.db, articleID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find score", "error", err, "article_id", articleID)
		return nil, fmt.Errorf("failed to find score: %w", err)
	}

	return score, nil
}

// UpdateRanks materializes computed ranks in one transaction.
func (r *scoreRepository) UpdateRanks(ctx context.Context, ranks map[int64]float64) error {
	if len(ranks) == 0 {
		return nil
	}

	if err := driver.UpdateScoreRanks(ctx, r.db, ranks); err != nil {
		r.logger.ErrorContext(ctx, "failed to update ranks", "error", err, "count", len(ranks))
		return fmt.Errorf("failed to update ranks: %w", err)
	}

	r.logger.InfoContext(ctx, "ranks materialized", "count", len(ranks))

	return nil
}

// DeleteFetchedAfter drops scores for articles fetched after the cutoff
// so the next cycle re-evaluates them.
func (r *scoreRepository) DeleteFetchedAfter(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := driver.DeleteScoresFetchedAfter(ctx, r.db, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to delete scores for rescore", "error", err)
		return 0, fmt.Errorf("failed to delete scores for rescore: %w", err)
	}

	r.logger.InfoContext(ctx, "scores dropped for rescore", "count", deleted)

	return deleted, nil
}
