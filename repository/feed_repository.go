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

// FeedRepository implementation.
type feedRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFeedRepository creates a new feed repository.
func NewFeedRepository(db *sql.DB, logger *slog.Logger) FeedRepository {
	return &feedRepository{
		db:     db,
		logger: logger,
	}
}

// Create registers a new feed source.
func (r *feedRepository) Create(ctx context.Context, feed *domain.Feed) error {
	r.logger.InfoContext(ctx, "creating feed", "url", feed.URL)

	if r.db == nil {
		r.logger.ErrorContext(ctx, "database connection is nil")
		return fmt.Errorf("failed to create feed: database connection is nil")
	}

	if err := driver.InsertFeed(ctx, r.db, feed); err != nil {
		r.logger.ErrorContext(ctx, "failed to create feed", "error", err, "url", feed.URL)
		return fmt.Errorf("failed to create feed: %w", err)
	}

	r.logger.InfoContext(ctx, "feed created successfully", "feed_id", feed.ID, "url", feed.URL)

	return nil
}

// List returns registered feeds, optionally only enabled ones.
func (r *feedRepository) List(ctx context.Context, enabledOnly bool) ([]*domain.Feed, error) {
	if r.db == nil {
		r.logger.ErrorContext(ctx, "database connection is nil")
		return nil, fmt.Errorf("failed to list feeds: database connection is nil")
	}

	feeds, err := driver.ListFeeds(ctx, r.db, enabledOnly)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list feeds", "error", err)
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	return feeds, nil
}

// FindByID returns the feed with the given ID.
func (r *feedRepository) FindByID(ctx context.Context, feedID int64) (*domain.Feed, error) {
	if r.db == nil {
		r.logger.ErrorContext(ctx, "database connection is nil")
		return nil, fmt.Errorf("failed to find feed: database connection is nil")
	}

	feed, err := driver.GetFeedByID(ctx, r.db, feedID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to find feed", "error", err, "feed_id", feedID)
		return nil, fmt.Errorf("failed to find feed: %w", err)
	}

	return feed, nil
}

// Delete removes a feed. Its articles stay behind for retention to age out.
func (r *feedRepository) Delete(ctx context.Context, feedID int64) error {
	r.logger.InfoContext(ctx, "deleting feed", "feed_id", feedID)

	if err := driver.DeleteFeed(ctx, r.db, feedID); err != nil {
		r.logger.ErrorContext(ctx, "failed to delete feed", "error", err, "feed_id", feedID)
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	r.logger.InfoContext(ctx, "feed deleted successfully", "feed_id", feedID)

	return nil
}

// SetEnabled toggles whether the feed participates in ingestion.
func (r *feedRepository) SetEnabled(ctx context.Context, feedID int64, enabled bool) error {
	r.logger.InfoContext(ctx, "setting feed enabled", "feed_id", feedID, "enabled", enabled)

	if err := driver.SetFeedEnabled(ctx, r.db, feedID, enabled); err != nil {
		r.logger.ErrorContext(ctx, "failed to set feed enabled", "error", err, "feed_id", feedID)
		return fmt.Errorf("failed to set feed enabled: %w", err)
	}

	return nil
}

// MarkFetched records a successful fetch timestamp.
func (r *feedRepository) MarkFetched(ctx context.Context, feedID int64, at time.Time) error {
	if err := driver.MarkFeedFetched(ctx, r.db, feedID, at); err != nil {
		r.logger.ErrorContext(ctx, "failed to mark feed fetched", "error", err, "feed_id", feedID)
		return fmt.Errorf("failed to mark feed fetched: %w", err)
	}

	return nil
}
