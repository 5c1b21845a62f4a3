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

// ProfileRepository implementation.
type profileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sql.DB, logger *slog.Logger) ProfileRepository {
	return &profileRepository{
		db:     db,
		logger: logger,
	}
}

// Topics returns the interest topics ordered by name.
func (r *profileRepository) Topics(ctx context.Context) ([]domain.InterestTopic, error) {
	topics, err := driver.ListInterestTopics(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list interest topics", "error", err)
		return nil, fmt.Errorf("failed to list interest topics: %w", err)
	}

	return topics, nil
}

// ReplaceTopics swaps the whole topic set in one transaction.
func (r *profileRepository) ReplaceTopics(ctx context.Context, topics []domain.InterestTopic, now time.Time) error {
	r.logger.InfoContext(ctx, "replacing interest topics", "count", len(topics))

	if err := driver.ReplaceInterestTopics(ctx, r.db, topics, now); err != nil {
		r.logger.ErrorContext(ctx, "failed to replace interest topics", "error", err)
		return fmt.Errorf("failed to replace interest topics: %w", err)
	}

	r.logger.InfoContext(ctx, "interest topics replaced", "count", len(topics))

	return nil
}

// GetPreference returns the stored value, empty when absent.
func (r *profileRepository) GetPreference(ctx context.Context, key string) (string, error) {
	value, err := driver.GetPreference(ctx, r.db, key)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to get preference", "error", err, "key", key)
		return "", fmt.Errorf("failed to get preference: %w", err)
	}

	return value, nil
}

// SetPreference upserts a preference value.
func (r *profileRepository) SetPreference(ctx context.Context, key, value string) error {
	if err := driver.SetPreference(ctx, r.db, key, value, time.Now().UTC()); err != nil {
		r.logger.ErrorContext(ctx, "failed to set preference", "error", err, "key", key)
		return fmt.Errorf("failed to set preference: %w", err)
	}

	return nil
}
