package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"attentiond/domain"
)

// Preference keys. The profile's non-topic fields live in the
// preferences table alongside the rescore flag.
const (
	PrefNeedsRescore        = "needs_rescore"
	PrefProfileDescription  = "profile_description"
	PrefExplorationFraction = "exploration_fraction"
)

// ListInterestTopics returns the profile's topics ordered by name.
func ListInterestTopics(ctx context.Context, db *sql.DB) ([]domain.InterestTopic, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, weight, keywords, excluded, updated_at FROM interest_topics ORDER BY name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var topics []domain.InterestTopic
	for rows.Next() {
		var t domain.InterestTopic
		var keywordsJSON string
		if err := rows.Scan(&t.Name, &t.Weight, &keywordsJSON, &t.Excluded, &t.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &t.Keywords); err != nil {
			t.Keywords = nil
		}
		topics = append(topics, t)
	}

	return topics, mapError(rows.Err())
}

// ReplaceInterestTopics swaps the topic set wholesale in one
// transaction. Weights below the floor are clamped on the way in so a
// profile edit can never undercut the floor invariant.
func ReplaceInterestTopics(ctx context.Context, db *sql.DB, topics []domain.InterestTopic, now time.Time) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM interest_topics`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO interest_topics (name, weight, keywords, excluded, updated_at)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range topics {
			weight := t.Weight
			if weight < domain.WeightFloor {
				weight = domain.WeightFloor
			}
			keywordsJSON, err := json.Marshal(t.Keywords)
			if err != nil {
				return err
			}
			if t.Keywords == nil {
				keywordsJSON = []byte("[]")
			}
			if _, err := stmt.ExecContext(ctx, t.Name, weight, string(keywordsJSON), t.Excluded, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPreference reads a raw preference value. Returns ("", nil) when
// the key has never been written.
func GetPreference(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", mapError(err)
	}
	return value, nil
}

// SetPreference upserts a preference value.
func SetPreference(ctx context.Context, db *sql.DB, key, value string, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return mapError(err)
}
