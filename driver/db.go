package driver

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"attentiond/domain"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS feeds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	site_url TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	enabled INTEGER NOT NULL DEFAULT 1,
	last_fetched_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feed_id INTEGER REFERENCES feeds(id) ON DELETE SET NULL,
	url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	published_at TIMESTAMP,
	fetched_at TIMESTAMP NOT NULL,
	is_read INTEGER NOT NULL DEFAULT 0,
	is_bookmarked INTEGER NOT NULL DEFAULT 0,
	is_archived INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_articles_fetched_at ON articles(fetched_at);
CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id);

CREATE TABLE IF NOT EXISTS scores (
	article_id INTEGER PRIMARY KEY REFERENCES articles(id),
	relevance REAL NOT NULL DEFAULT 0,
	significance REAL NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 1.0,
	summary TEXT NOT NULL DEFAULT '',
	topics TEXT NOT NULL DEFAULT '[]',
	reason TEXT NOT NULL DEFAULT '',
	rank REAL NOT NULL DEFAULT 0,
	scored_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS interest_topics (
	name TEXT PRIMARY KEY,
	weight REAL NOT NULL DEFAULT 1.0,
	keywords TEXT NOT NULL DEFAULT '[]',
	excluded INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback_signals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	article_id INTEGER NOT NULL REFERENCES articles(id),
	topic TEXT NOT NULL,
	kind TEXT NOT NULL,
	magnitude REAL NOT NULL DEFAULT 1.0,
	confidence REAL NOT NULL DEFAULT 1.0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_signals_article ON feedback_signals(article_id);

CREATE TABLE IF NOT EXISTS signal_counters (
	topic TEXT PRIMARY KEY,
	likes REAL NOT NULL DEFAULT 0,
	dislikes REAL NOT NULL DEFAULT 0,
	saves REAL NOT NULL DEFAULT 0,
	dwell_seconds REAL NOT NULL DEFAULT 0,
	volume REAL NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT '{}',
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS cycle_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	last_run_at TIMESTAMP,
	last_error TEXT NOT NULL DEFAULT '',
	consecutive_successes INTEGER NOT NULL DEFAULT 0,
	last_signal_id INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO cycle_state (id) VALUES (1);
`

// Init opens the SQLite database, enables WAL mode so the single cycle
// writer and the interactive API readers do not hard-fail on first
// contention, sets the bounded busy wait, and applies the schema.
func Init(ctx context.Context, path string, busyTimeoutMillis int) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// The pragmas ride in the DSN so every pooled connection gets them.
	// A bare PRAGMA statement through *sql.DB only reaches the one
	// connection that happens to execute it.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		path, busyTimeoutMillis)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

// mapError converts driver-level lock contention into the transient
// domain.ErrStoreBusy sentinel. Everything else passes through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %v", domain.ErrStoreBusy, err)
	}
	return err
}

// inTx runs fn inside a transaction, rolling back on error.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", mapError(err), rbErr)
		}
		return mapError(err)
	}
	return mapError(tx.Commit())
}
