package driver

import (
	"context"
	"database/sql"
	"time"

	"attentiond/domain"
)

// InsertSignal appends one feedback signal to the audit log. Signals
// are never updated or deleted.
func InsertSignal(ctx context.Context, db *sql.DB, signal *domain.FeedbackSignal) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO feedback_signals (article_id, topic, kind, magnitude, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		signal.ArticleID, signal.Topic, string(signal.Kind), signal.Magnitude, signal.Confidence, signal.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return mapError(err)
	}
	signal.ID = id

	return nil
}

// ListSignalsSince returns signals with id greater than the watermark,
// oldest first.
func ListSignalsSince(ctx context.Context, db *sql.DB, afterID int64) ([]*domain.FeedbackSignal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, article_id, topic, kind, magnitude, confidence, created_at
		 FROM feedback_signals WHERE id > ? ORDER BY id`, afterID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var signals []*domain.FeedbackSignal
	for rows.Next() {
		var s domain.FeedbackSignal
		var kind string
		if err := rows.Scan(&s.ID, &s.ArticleID, &s.Topic, &kind, &s.Magnitude, &s.Confidence, &s.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		s.Kind = domain.SignalKind(kind)
		signals = append(signals, &s)
	}

	return signals, mapError(rows.Err())
}

// GetSignalCounters returns the rolling per-topic counters.
func GetSignalCounters(ctx context.Context, db *sql.DB) (map[string]*domain.SignalCounters, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT topic, likes, dislikes, saves, dwell_seconds, volume, updated_at FROM signal_counters`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counters := make(map[string]*domain.SignalCounters)
	for rows.Next() {
		var c domain.SignalCounters
		if err := rows.Scan(&c.Topic, &c.Likes, &c.Dislikes, &c.Saves, &c.DwellSeconds, &c.Volume, &c.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		counters[c.Topic] = &c
	}

	return counters, mapError(rows.Err())
}

// ApplyAdaptation commits one weight-adaptation tick atomically:
// updated rolling counters, new topic weights, and the consumed-signal
// watermark all land in a single transaction, or none of them do.
func ApplyAdaptation(ctx context.Context, db *sql.DB, counters map[string]*domain.SignalCounters, weights map[string]float64, watermark int64, now time.Time) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		counterStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO signal_counters (topic, likes, dislikes, saves, dwell_seconds, volume, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(topic) DO UPDATE SET
				likes = excluded.likes,
				dislikes = excluded.dislikes,
				saves = excluded.saves,
				dwell_seconds = excluded.dwell_seconds,
				volume = excluded.volume,
				updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer counterStmt.Close()

		for _, c := range counters {
			if _, err := counterStmt.ExecContext(ctx, c.Topic, c.Likes, c.Dislikes, c.Saves, c.DwellSeconds, c.Volume, now); err != nil {
				return err
			}
		}

		weightStmt, err := tx.PrepareContext(ctx,
			`UPDATE interest_topics SET weight = ?, updated_at = ? WHERE name = ?`)
		if err != nil {
			return err
		}
		defer weightStmt.Close()

		for topic, weight := range weights {
			if _, err := weightStmt.ExecContext(ctx, weight, now, topic); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE cycle_state SET last_signal_id = ? WHERE id = 1`, watermark); err != nil {
			return err
		}

		return nil
	})
}
