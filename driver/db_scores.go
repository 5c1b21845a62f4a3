package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"attentiond/domain"
)

// UpsertScore writes an article's score, overwriting any previous one.
// The operation is idempotent so a rescore pass can simply re-run it.
// A fresh upsert resets the materialized rank; the next RankMaterialize
// stage recomputes it.
func UpsertScore(ctx context.Context, db *sql.DB, score *domain.Score) error {
	topicsJSON, err := json.Marshal(score.Topics)
	if err != nil {
		return err
	}
	if score.Topics == nil {
		topicsJSON = []byte("[]")
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO scores (article_id, relevance, significance, confidence, summary, topics, reason, rank, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(article_id) DO UPDATE SET
			relevance = excluded.relevance,
			significance = excluded.significance,
			confidence = excluded.confidence,
			summary = excluded.summary,
			topics = excluded.topics,
			reason = excluded.reason,
			rank = excluded.rank,
			scored_at = excluded.scored_at`,
		score.ArticleID, score.Relevance, score.Significance, score.Confidence,
		score.Summary, string(topicsJSON), score.Reason, score.Rank, score.ScoredAt)

	return mapError(err)
}

// UpdateScoreRanks materializes computed ranks in one transaction.
func UpdateScoreRanks(ctx context.Context, db *sql.DB, ranks map[int64]float64) error {
	if len(ranks) == 0 {
		return nil
	}

	return inTx(ctx, db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE scores SET rank = ? WHERE article_id = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for articleID, rank := range ranks {
			if _, err := stmt.ExecContext(ctx, rank, articleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteScoresFetchedAfter drops scores whose articles were fetched
// after the cutoff. Used by the rescore pass so those articles re-enter
// the unscored set.
func DeleteScoresFetchedAfter(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM scores WHERE article_id IN
		 (SELECT id FROM articles WHERE fetched_at > ?)`, cutoff)
	if err != nil {
		return 0, mapError(err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return deleted, nil
}

// GetScoreByArticleID loads a single score; returns nil when the
// article is unscored.
func GetScoreByArticleID(ctx context.Context, db *sql.DB, articleID int64) (*domain.Score, error) {
	var s domain.Score
	var topicsJSON string
	err := db.QueryRowContext(ctx,
		`SELECT article_id, relevance, significance, confidence, summary, topics, reason, rank, scored_at
		 FROM scores WHERE article_id = ?`, articleID).
		Scan(&s.ArticleID, &s.Relevance, &s.Significance, &s.Confidence,
			&s.Summary, &topicsJSON, &s.Reason, &s.Rank, &s.ScoredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	if err := json.Unmarshal([]byte(topicsJSON), &s.Topics); err != nil {
		s.Topics = nil
	}
	return &s, nil
}
