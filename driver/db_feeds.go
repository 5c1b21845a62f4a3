package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"attentiond/domain"
)

// InsertFeed registers a new feed. Returns domain.ErrFeedExists when the
// URL is already registered.
func InsertFeed(ctx context.Context, db *sql.DB, feed *domain.Feed) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO feeds (url, title, site_url, category, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		feed.URL, feed.Title, feed.SiteURL, feed.Category, feed.Enabled, feed.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", domain.ErrFeedExists, feed.URL)
		}
		return mapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return mapError(err)
	}
	feed.ID = id

	return nil
}

// ListFeeds returns all feeds ordered by id, optionally restricted to
// enabled ones.
func ListFeeds(ctx context.Context, db *sql.DB, enabledOnly bool) ([]*domain.Feed, error) {
	query := `SELECT id, url, title, site_url, category, enabled, last_fetched_at, created_at FROM feeds`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var feeds []*domain.Feed
	for rows.Next() {
		var f domain.Feed
		var lastFetched sql.NullTime
		if err := rows.Scan(&f.ID, &f.URL, &f.Title, &f.SiteURL, &f.Category, &f.Enabled, &lastFetched, &f.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		if lastFetched.Valid {
			t := lastFetched.Time
			f.LastFetchedAt = &t
		}
		feeds = append(feeds, &f)
	}

	return feeds, mapError(rows.Err())
}

// GetFeedByID returns a single feed or domain.ErrFeedNotFound.
func GetFeedByID(ctx context.Context, db *sql.DB, id int64) (*domain.Feed, error) {
	var f domain.Feed
	var lastFetched sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT id, url, title, site_url, category, enabled, last_fetched_at, created_at
		 FROM feeds WHERE id = ?`, id).
		Scan(&f.ID, &f.URL, &f.Title, &f.SiteURL, &f.Category, &f.Enabled, &lastFetched, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", domain.ErrFeedNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	if lastFetched.Valid {
		t := lastFetched.Time
		f.LastFetchedAt = &t
	}
	return &f, nil
}

// DeleteFeed removes a feed registration. Articles already ingested from
// it are kept with their feed link cleared; they are never physically
// deleted.
func DeleteFeed(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", domain.ErrFeedNotFound, id)
	}
	return nil
}

// SetFeedEnabled toggles a feed's participation in ingestion.
func SetFeedEnabled(ctx context.Context, db *sql.DB, id int64, enabled bool) error {
	res, err := db.ExecContext(ctx, `UPDATE feeds SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", domain.ErrFeedNotFound, id)
	}
	return nil
}

// MarkFeedFetched records a successful fetch timestamp.
func MarkFeedFetched(ctx context.Context, db *sql.DB, id int64, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE feeds SET last_fetched_at = ? WHERE id = ?`, at, id)
	return mapError(err)
}
