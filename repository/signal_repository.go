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

// SignalRepository implementation.
type signalRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSignalRepository creates a new signal repository.
func NewSignalRepository(db *sql.DB, logger *slog.Logger) SignalRepository {
	return &signalRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends a feedback signal. Signals are never updated or
// deleted; adaptation consumes them by watermark.
func (r *signalRepository) Record(ctx context.Context, signal *domain.FeedbackSignal) error {
	if err := driver.InsertSignal(ctx, r.db, signal); err != nil {
		r.logger.ErrorContext(ctx, "failed to record signal", "error", err, "article_id", signal.ArticleID, "kind", signal.Kind)
		return fmt.Errorf("failed to record signal: %w", err)
	}

	r.logger.InfoContext(ctx, "signal recorded",
		"signal_id", signal.ID,
		"article_id", signal.ArticleID,
		"topic", signal.Topic,
		"kind", signal.Kind)

	return nil
}

// ListSince returns signals with IDs strictly greater than afterID, in
// insertion order.
func (r *signalRepository) ListSince(ctx context.Context, afterID int64) ([]*domain.FeedbackSignal, error) {
	signals, err := driver.ListSignalsSince(ctx, r.db, afterID)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list signals", "error", err, "after_id", afterID)
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}

	return signals, nil
}

// Counters returns the persisted per-topic rolling counters.
func (r *signalRepository) Counters(ctx context.Context) (map[string]*domain.SignalCounters, error) {
	counters, err := driver.GetSignalCounters(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load signal counters", "error", err)
		return nil, fmt.Errorf("failed to load signal counters: %w", err)
	}

	return counters, nil
}

// ApplyAdaptation commits one adaptation tick: counter upserts, topic
// weight updates, and the signal watermark move in a single transaction.
func (r *signalRepository) ApplyAdaptation(ctx context.Context, counters map[string]*domain.SignalCounters, weights map[string]float64, watermark int64, now time.Time) error {
	r.logger.InfoContext(ctx, "applying adaptation tick",
		"topics", len(counters),
		"weight_updates", len(weights),
		"watermark", watermark)

	if err := driver.ApplyAdaptation(ctx, r.db, counters, weights, watermark, now); err != nil {
		r.logger.ErrorContext(ctx, "failed to apply adaptation tick", "error", err, "watermark", watermark)
		return fmt.Errorf("failed to apply adaptation tick: %w", err)
	}

	r.logger.InfoContext(ctx, "adaptation tick applied", "weight_updates", len(weights), "watermark", watermark)

	return nil
}
