package driver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attentiond/domain"
)

const articleColumns = `a.id, a.feed_id, a.url, a.title, a.author, a.summary, a.content,
	a.published_at, a.fetched_at, a.is_read, a.is_bookmarked, a.is_archived`

// InsertArticle inserts a candidate article, deduplicating on URL.
// Returns true when a new row was created, false for a duplicate.
func InsertArticle(ctx context.Context, db *sql.DB, article *domain.Article) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles
		 (feed_id, url, title, author, summary, content, published_at, fetched_at, is_read, is_bookmarked, is_archived)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0)`,
		article.FeedID, article.URL, article.Title, article.Author,
		article.Summary, article.Content, article.PublishedAt, article.FetchedAt)
	if err != nil {
		return false, mapError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, mapError(err)
	}
	article.ID = id

	return true, nil
}

func scanArticle(scanner interface{ Scan(dest ...any) error }) (*domain.Article, error) {
	var a domain.Article
	var feedID sql.NullInt64
	var published sql.NullTime
	err := scanner.Scan(&a.ID, &feedID, &a.URL, &a.Title, &a.Author, &a.Summary, &a.Content,
		&published, &a.FetchedAt, &a.IsRead, &a.IsBookmarked, &a.IsArchived)
	if err != nil {
		return nil, err
	}
	// feed_id goes NULL when the source feed is removed; the article
	// itself is kept.
	a.FeedID = feedID.Int64
	if published.Valid {
		t := published.Time
		a.PublishedAt = &t
	}
	return &a, nil
}

// GetArticleByID returns a single article, archived or not, or
// domain.ErrArticleNotFound. Archived articles stay reachable by direct
// lookup for feedback history.
func GetArticleByID(ctx context.Context, db *sql.DB, id int64) (*domain.Article, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.id = ?`, id)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", domain.ErrArticleNotFound, id)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return article, nil
}

// ListUnscoredArticles returns active articles that have no score yet,
// newest first, bounded by limit. When since is non-zero only articles
// fetched after it are considered (used by the rescore pass).
func ListUnscoredArticles(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]*domain.Article, error) {
	query := `SELECT ` + articleColumns + `
		FROM articles a
		LEFT JOIN scores s ON s.article_id = a.id
		WHERE s.article_id IS NULL AND a.is_archived = 0`
	args := []any{}
	if !since.IsZero() {
		query += ` AND a.fetched_at > ?`
		args = append(args, since)
	}
	query += ` ORDER BY a.published_at DESC, a.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, mapError(err)
		}
		articles = append(articles, a)
	}

	return articles, mapError(rows.Err())
}

func scanScoredArticle(rows *sql.Rows) (*domain.ScoredArticle, error) {
	var a domain.Article
	var s domain.Score
	var feedID sql.NullInt64
	var published sql.NullTime
	var topicsJSON string
	err := rows.Scan(&a.ID, &feedID, &a.URL, &a.Title, &a.Author, &a.Summary, &a.Content,
		&published, &a.FetchedAt, &a.IsRead, &a.IsBookmarked, &a.IsArchived,
		&s.ArticleID, &s.Relevance, &s.Significance, &s.Confidence,
		&s.Summary, &topicsJSON, &s.Reason, &s.Rank, &s.ScoredAt)
	if err != nil {
		return nil, err
	}
	a.FeedID = feedID.Int64
	if published.Valid {
		t := published.Time
		a.PublishedAt = &t
	}
	if err := json.Unmarshal([]byte(topicsJSON), &s.Topics); err != nil {
		s.Topics = nil
	}
	return &domain.ScoredArticle{Article: &a, Score: &s}, nil
}

const scoredArticleQuery = `SELECT ` + articleColumns + `,
	s.article_id, s.relevance, s.significance, s.confidence,
	s.summary, s.topics, s.reason, s.rank, s.scored_at
	FROM articles a
	INNER JOIN scores s ON s.article_id = a.id`

// ListScoredActive returns every scored, non-archived article with its
// score. Articles without a score are unrankable and deliberately
// excluded here rather than treated as zero-scored.
func ListScoredActive(ctx context.Context, db *sql.DB) ([]*domain.ScoredArticle, error) {
	rows, err := db.QueryContext(ctx, scoredArticleQuery+` WHERE a.is_archived = 0`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []*domain.ScoredArticle
	for rows.Next() {
		sa, err := scanScoredArticle(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, sa)
	}

	return result, mapError(rows.Err())
}

// ListArticles returns articles for the default listing, scored or
// not, best-scored first and newest first within equal relevance.
func ListArticles(ctx context.Context, db *sql.DB, filter domain.ArticleFilter) ([]*domain.ScoredArticle, error) {
	query := `SELECT ` + articleColumns + `,
		s.article_id, s.relevance, s.significance, s.confidence,
		s.summary, s.topics, s.reason, s.rank, s.scored_at
		FROM articles a
		LEFT JOIN scores s ON s.article_id = a.id
		WHERE 1 = 1`
	args := []any{}

	if !filter.IncludeArchived {
		query += ` AND a.is_archived = 0`
	}
	if filter.ScoredOnly || filter.MinRelevance > 0 {
		query += ` AND s.article_id IS NOT NULL`
	}
	if filter.MinRelevance > 0 {
		query += ` AND s.relevance >= ?`
		args = append(args, filter.MinRelevance)
	}
	if filter.FeedID != 0 {
		query += ` AND a.feed_id = ?`
		args = append(args, filter.FeedID)
	}

	query += ` ORDER BY s.relevance DESC, a.published_at DESC, a.id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []*domain.ScoredArticle
	for rows.Next() {
		sa, err := scanOptionallyScoredArticle(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, sa)
	}

	return result, mapError(rows.Err())
}

// scanOptionallyScoredArticle handles the LEFT JOIN shape where the
// score side may be all NULLs.
func scanOptionallyScoredArticle(rows *sql.Rows) (*domain.ScoredArticle, error) {
	var a domain.Article
	var feedID sql.NullInt64
	var published sql.NullTime
	var scoreID sql.NullInt64
	var relevance, significance, confidence, rank sql.NullFloat64
	var summary, topicsJSON, reason sql.NullString
	var scoredAt sql.NullTime

	err := rows.Scan(&a.ID, &feedID, &a.URL, &a.Title, &a.Author, &a.Summary, &a.Content,
		&published, &a.FetchedAt, &a.IsRead, &a.IsBookmarked, &a.IsArchived,
		&scoreID, &relevance, &significance, &confidence,
		&summary, &topicsJSON, &reason, &rank, &scoredAt)
	if err != nil {
		return nil, err
	}
	a.FeedID = feedID.Int64
	if published.Valid {
		t := published.Time
		a.PublishedAt = &t
	}

	sa := &domain.ScoredArticle{Article: &a}
	if scoreID.Valid {
		s := &domain.Score{
			ArticleID:    scoreID.Int64,
			Relevance:    relevance.Float64,
			Significance: significance.Float64,
			Confidence:   confidence.Float64,
			Summary:      summary.String,
			Reason:       reason.String,
			Rank:         rank.Float64,
			ScoredAt:     scoredAt.Time,
		}
		if topicsJSON.Valid {
			if err := json.Unmarshal([]byte(topicsJSON.String), &s.Topics); err != nil {
				s.Topics = nil
			}
		}
		sa.Score = s
	}

	return sa, nil
}

// ListRetentionCandidates returns scored, non-archived, non-bookmarked
// articles fetched before the cutoff whose materialized rank is below
// the threshold. The no-like exemption is applied by the caller.
func ListRetentionCandidates(ctx context.Context, db *sql.DB, cutoff time.Time, rankThreshold float64) ([]*domain.ScoredArticle, error) {
	rows, err := db.QueryContext(ctx, scoredArticleQuery+`
		WHERE a.is_archived = 0
		  AND a.is_bookmarked = 0
		  AND a.fetched_at < ?
		  AND s.rank < ?`, cutoff, rankThreshold)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []*domain.ScoredArticle
	for rows.Next() {
		sa, err := scanScoredArticle(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, sa)
	}

	return result, mapError(rows.Err())
}

// ArchiveArticles soft-archives the given ids. Idempotent: already
// archived rows are left untouched. Returns the number of rows that
// actually transitioned.
func ArchiveArticles(ctx context.Context, db *sql.DB, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	archived := 0
	err := inTx(ctx, db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE articles SET is_archived = 1 WHERE id = ? AND is_archived = 0`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, id := range ids {
			res, err := stmt.ExecContext(ctx, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			archived += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return archived, nil
}

// SetArticleRead flips the read marker.
func SetArticleRead(ctx context.Context, db *sql.DB, id int64, read bool) error {
	return setArticleFlag(ctx, db, id, "is_read", read)
}

// SetArticleBookmarked flips the bookmark marker, which exempts the
// article from retention.
func SetArticleBookmarked(ctx context.Context, db *sql.DB, id int64, bookmarked bool) error {
	return setArticleFlag(ctx, db, id, "is_bookmarked", bookmarked)
}

func setArticleFlag(ctx context.Context, db *sql.DB, id int64, column string, value bool) error {
	res, err := db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE articles SET %s = ? WHERE id = ?`, column), value, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", domain.ErrArticleNotFound, id)
	}
	return nil
}

// LikedArticleIDs returns the set of article ids with at least one
// recorded like signal.
func LikedArticleIDs(ctx context.Context, db *sql.DB) (map[int64]struct{}, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT article_id FROM feedback_signals WHERE kind = ?`, string(domain.SignalLike))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	liked := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		liked[id] = struct{}{}
	}

	return liked, mapError(rows.Err())
}

// GetStoreStats collects entity counts in one round trip per table.
func GetStoreStats(ctx context.Context, db *sql.DB) (*domain.StoreStats, error) {
	stats := &domain.StoreStats{}
	queries := []struct {
		dest  *int
		query string
	}{
		{&stats.Feeds, `SELECT COUNT(*) FROM feeds`},
		{&stats.FeedsEnabled, `SELECT COUNT(*) FROM feeds WHERE enabled = 1`},
		{&stats.Articles, `SELECT COUNT(*) FROM articles`},
		{&stats.Archived, `SELECT COUNT(*) FROM articles WHERE is_archived = 1`},
		{&stats.Scored, `SELECT COUNT(*) FROM scores`},
		{&stats.Signals, `SELECT COUNT(*) FROM feedback_signals`},
		{&stats.Topics, `SELECT COUNT(*) FROM interest_topics`},
	}
	for _, q := range queries {
		if err := db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, mapError(err)
		}
	}
	return stats, nil
}
