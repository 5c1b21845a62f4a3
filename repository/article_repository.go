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

// ArticleRepository implementation.
type articleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sql.DB, logger *slog.Logger) ArticleRepository {
	return &articleRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert stores an article, reporting whether it was newly created.
// Duplicate URLs are ignored, so re-ingesting a feed is safe.
func (r *articleRepository) Upsert(ctx context.Context, article *domain.Article) (bool, error) {
	if r.db == nil {
		r.logger.ErrorContext(ctx, "database connection is nil")
		return false, fmt.Errorf("failed to upsert article: database connection is nil")
	}

	created, err := driver.InsertArticle(ctx, r.db, article)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to upsert article", "error", err, "url", article.URL)
		return false, fmt.Errorf("failed to upsert article: %w", err)
	}

	if created {
		r.logger.InfoContext(ctx, "article stored", "article_id", article.ID, "url", article.URL)
	}

	return created, nil
}

// FindByID returns the article with the given ID.
func (r *articleRepository) FindByID(ctx context.Context, articleID int64) (*domain.Article, error) {
	article, err := driver.GetArticleByID(ctx, r.db, articleID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find article", "error", err, "article_id", articleID)
		return nil, fmt.Errorf("failed to find article: %w", err)
	}

	return article, nil
}

// FindUnscored returns active articles fetched since the cutoff that
// have no score yet.
func (r *articleRepository) FindUnscored(ctx context.Context, since time.Time, limit int) ([]*domain.Article, error) {
	r.logger.InfoContext(ctx, "finding unscored articles", "since", since, "limit", limit)

	articles, err := driver.ListUnscoredArticles(ctx, r.db, since, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find unscored articles", "error", err)
		return nil, fmt.Errorf("failed to find unscored articles: %w", err)
	}

	r.logger.InfoContext(ctx, "found unscored articles", "count", len(articles))

	return articles, nil
}

// List returns articles for the default listing view.
func (r *articleRepository) List(ctx context.Context, filter domain.ArticleFilter) ([]*domain.ScoredArticle, error) {
	articles, err := driver.ListArticles(ctx, r.db, filter)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list articles", "error", err)
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	return articles, nil
}

// ListScored returns all active scored articles with their scores.
func (r *articleRepository) ListScored(ctx context.Context) ([]*domain.ScoredArticle, error) {
	scored, err := driver.ListScoredActive(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list scored articles", "error", err)
		return nil, fmt.Errorf("failed to list scored articles: %w", err)
	}

	return scored, nil
}

// RetentionCandidates returns scored, unarchived, unbookmarked articles
// older than the cutoff whose materialized rank fell below the threshold.
func (r *articleRepository) RetentionCandidates(ctx context.Context, cutoff time.Time, rankThreshold float64) ([]*domain.ScoredArticle, error) {
	r.logger.InfoContext(ctx, "finding retention candidates", "cutoff", cutoff, "rank_threshold", rankThreshold)

	candidates, err := driver.ListRetentionCandidates(ctx, r.db, cutoff, rankThreshold)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find retention candidates", "error", err)
		return nil, fmt.Errorf("failed to find retention candidates: %w", err)
	}

	r.logger.InfoContext(ctx, "found retention candidates", "count", len(candidates))

	return candidates, nil
}

// Archive flips is_archived on the given articles, returning how many
// actually transitioned.
func (r *articleRepository) Archive(ctx context.Context, articleIDs []int64) (int, error) {
	if len(articleIDs) == 0 {
		return 0, nil
	}

	archived, err := driver.ArchiveArticles(ctx, r.db, articleIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to archive articles", "error", err, "count", len(articleIDs))
		return 0, fmt.Errorf("failed to archive articles: %w", err)
	}

	r.logger.InfoContext(ctx, "articles archived", "requested", len(articleIDs), "archived", archived)

	return archived, nil
}

// SetRead toggles the read flag.
func (r *articleRepository) SetRead(ctx context.Context, articleID int64, read bool) error {
	if err := driver.SetArticleRead(ctx, r.db, articleID, read); err != nil {
		r.logger.ErrorContext(ctx, "failed to set article read", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to set article read: %w", err)
	}

	return nil
}

// SetBookmarked toggles the bookmark flag.
func (r *articleRepository) SetBookmarked(ctx context.Context, articleID int64, bookmarked bool) error {
	if err := driver.SetArticleBookmarked(ctx, r.db, articleID, bookmarked); err != nil {
		r.logger.ErrorContext(ctx, "failed to set article bookmarked", "error", err, "article_id", articleID)
		return fmt.Errorf("failed to set article bookmarked: %w", err)
	}

	return nil
}

// LikedIDs returns the set of article IDs with at least one like signal.
func (r *articleRepository) LikedIDs(ctx context.Context) (map[int64]struct{}, error) {
	liked, err := driver.LikedArticleIDs(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list liked article ids", "error", err)
		return nil, fmt.Errorf("failed to list liked article ids: %w", err)
	}

	return liked, nil
}

// Stats returns the store counter snapshot.
func (r *articleRepository) Stats(ctx context.Context) (*domain.StoreStats, error) {
	stats, err := driver.GetStoreStats(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to collect store stats", "error", err)
		return nil, fmt.Errorf("failed to collect store stats: %w", err)
	}

	return stats, nil
}
