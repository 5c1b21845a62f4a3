package driver

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attentiond/domain"
)

func insertTestArticle(t *testing.T, db *sql.DB, feedID int64, url string) *domain.Article {
	t.Helper()
	published := time.Now().Add(-2 * time.Hour)
	article := &domain.Article{
		FeedID:      feedID,
		URL:         url,
		Title:       "Post at " + url,
		PublishedAt: &published,
		FetchedAt:   time.Now(),
	}
	created, err := InsertArticle(context.Background(), db, article)
	require.NoError(t, err)
	require.True(t, created)
	return article
}

func insertTestScore(t *testing.T, db *sql.DB, articleID int64, relevance, rank float64) {
	t.Helper()
	err := UpsertScore(context.Background(), db, &domain.Score{
		ArticleID:    articleID,
		Relevance:    relevance,
		Significance: 5,
		Confidence:   0.9,
		Topics:       []string{"distributed systems"},
		Rank:         rank,
		ScoredAt:     time.Now(),
	})
	require.NoError(t, err)
}

func TestInsertArticle(t *testing.T) {
	ctx := context.Background()

	t.Run("should deduplicate on URL", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		insertTestArticle(t, db, feed.ID, "https://example.com/post-1")

		created, err := InsertArticle(ctx, db, &domain.Article{
			FeedID:    feed.ID,
			URL:       "https://example.com/post-1",
			Title:     "Same URL, different title",
			FetchedAt: time.Now(),
		})
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("should store a nil published time as NULL", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)

		article := &domain.Article{FeedID: feed.ID, URL: "https://example.com/undated", FetchedAt: time.Now()}
		created, err := InsertArticle(ctx, db, article)
		require.NoError(t, err)
		require.True(t, created)

		got, err := GetArticleByID(ctx, db, article.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PublishedAt)
	})
}

func TestGetArticleByID(t *testing.T) {
	ctx := context.Background()

	t.Run("should return archived articles by direct lookup", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		article := insertTestArticle(t, db, feed.ID, "https://example.com/post-1")

		archived, err := ArchiveArticles(ctx, db, []int64{article.ID})
		require.NoError(t, err)
		require.Equal(t, 1, archived)

		got, err := GetArticleByID(ctx, db, article.ID)
		require.NoError(t, err)
		assert.True(t, got.IsArchived)
	})

	t.Run("should return not-found for an unknown id", func(t *testing.T) {
		db := testDB(t)

		_, err := GetArticleByID(ctx, db, 999)
		assert.ErrorIs(t, err, domain.ErrArticleNotFound)
	})
}

func TestListUnscoredArticles(t *testing.T) {
	ctx := context.Background()

	t.Run("should exclude scored and archived articles", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		scored := insertTestArticle(t, db, feed.ID, "https://example.com/scored")
		pending := insertTestArticle(t, db, feed.ID, "https://example.com/pending")
		buried := insertTestArticle(t, db, feed.ID, "https://example.com/buried")

		insertTestScore(t, db, scored.ID, 8, 0)
		_, err := ArchiveArticles(ctx, db, []int64{buried.ID})
		require.NoError(t, err)

		unscored, err := ListUnscoredArticles(ctx, db, time.Time{}, 100)
		require.NoError(t, err)
		require.Len(t, unscored, 1)
		assert.Equal(t, pending.ID, unscored[0].ID)
	})

	t.Run("should honor the since bound for rescore passes", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)

		old := &domain.Article{FeedID: feed.ID, URL: "https://example.com/old", FetchedAt: time.Now().Add(-48 * time.Hour)}
		_, err := InsertArticle(ctx, db, old)
		require.NoError(t, err)
		recent := insertTestArticle(t, db, feed.ID, "https://example.com/recent")

		unscored, err := ListUnscoredArticles(ctx, db, time.Now().Add(-24*time.Hour), 100)
		require.NoError(t, err)
		require.Len(t, unscored, 1)
		assert.Equal(t, recent.ID, unscored[0].ID)
	})

	t.Run("should respect the limit", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		insertTestArticle(t, db, feed.ID, "https://example.com/post-1")
		insertTestArticle(t, db, feed.ID, "https://example.com/post-2")
		insertTestArticle(t, db, feed.ID, "https://example.com/post-3")

		unscored, err := ListUnscoredArticles(ctx, db, time.Time{}, 2)
		require.NoError(t, err)
		assert.Len(t, unscored, 2)
	})
}

func TestListScoredActive(t *testing.T) {
	t.Run("should pair articles with scores and skip archived ones", func(t *testing.T) {
		ctx := context.Background()
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		active := insertTestArticle(t, db, feed.ID, "https://example.com/active")
		archived := insertTestArticle(t, db, feed.ID, "https://example.com/archived")
		insertTestArticle(t, db, feed.ID, "https://example.com/unscored")

		insertTestScore(t, db, active.ID, 8, 0)
		insertTestScore(t, db, archived.ID, 7, 0)
		_, err := ArchiveArticles(ctx, db, []int64{archived.ID})
		require.NoError(t, err)

		result, err := ListScoredActive(ctx, db)
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, active.ID, result[0].Article.ID)
		assert.Equal(t, []string{"distributed systems"}, result[0].Score.Topics)
	})
}

func TestListArticles(t *testing.T) {
	ctx := context.Background()

	t.Run("should include unscored articles with a nil score", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		scored := insertTestArticle(t, db, feed.ID, "https://example.com/scored")
		unscored := insertTestArticle(t, db, feed.ID, "https://example.com/unscored")
		insertTestScore(t, db, scored.ID, 8, 10.5)

		result, err := ListArticles(ctx, db, domain.ArticleFilter{Limit: 20})
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, scored.ID, result[0].Article.ID, "scored articles list first")
		require.NotNil(t, result[0].Score)
		assert.Equal(t, 10.5, result[0].Score.Rank)
		assert.Equal(t, unscored.ID, result[1].Article.ID)
		assert.Nil(t, result[1].Score)
	})

	t.Run("should apply scored-only and relevance filters", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		strong := insertTestArticle(t, db, feed.ID, "https://example.com/strong")
		weak := insertTestArticle(t, db, feed.ID, "https://example.com/weak")
		insertTestArticle(t, db, feed.ID, "https://example.com/unscored")
		insertTestScore(t, db, strong.ID, 9, 0)
		insertTestScore(t, db, weak.ID, 3, 0)

		result, err := ListArticles(ctx, db, domain.ArticleFilter{ScoredOnly: true, MinRelevance: 5, Limit: 20})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, strong.ID, result[0].Article.ID)
	})

	t.Run("should filter by feed", func(t *testing.T) {
		db := testDB(t)
		alpha := insertTestFeed(t, db, "https://alpha.example.com/feed.xml", true)
		beta := insertTestFeed(t, db, "https://beta.example.com/feed.xml", true)
		insertTestArticle(t, db, alpha.ID, "https://alpha.example.com/post")
		insertTestArticle(t, db, beta.ID, "https://beta.example.com/post")

		result, err := ListArticles(ctx, db, domain.ArticleFilter{FeedID: beta.ID, Limit: 20})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, beta.ID, result[0].Article.FeedID)
	})

	t.Run("should hide archived articles unless asked", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		article := insertTestArticle(t, db, feed.ID, "https://example.com/post")
		_, err := ArchiveArticles(ctx, db, []int64{article.ID})
		require.NoError(t, err)

		hidden, err := ListArticles(ctx, db, domain.ArticleFilter{Limit: 20})
		require.NoError(t, err)
		assert.Empty(t, hidden)

		shown, err := ListArticles(ctx, db, domain.ArticleFilter{IncludeArchived: true, Limit: 20})
		require.NoError(t, err)
		assert.Len(t, shown, 1)
	})

	t.Run("should page with limit and offset", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		insertTestArticle(t, db, feed.ID, "https://example.com/post-1")
		insertTestArticle(t, db, feed.ID, "https://example.com/post-2")
		insertTestArticle(t, db, feed.ID, "https://example.com/post-3")

		page, err := ListArticles(ctx, db, domain.ArticleFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})
}

func TestListRetentionCandidates(t *testing.T) {
	t.Run("should return only stale low-rank unbookmarked articles", func(t *testing.T) {
		ctx := context.Background()
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)

		stale := &domain.Article{FeedID: feed.ID, URL: "https://example.com/stale", FetchedAt: time.Now().Add(-40 * 24 * time.Hour)}
		_, err := InsertArticle(ctx, db, stale)
		require.NoError(t, err)
		kept := &domain.Article{FeedID: feed.ID, URL: "https://example.com/kept", FetchedAt: time.Now().Add(-40 * 24 * time.Hour)}
		_, err = InsertArticle(ctx, db, kept)
		require.NoError(t, err)
		fresh := insertTestArticle(t, db, feed.ID, "https://example.com/fresh")

		insertTestScore(t, db, stale.ID, 2, 1.5)
		insertTestScore(t, db, kept.ID, 2, 1.5)
		insertTestScore(t, db, fresh.ID, 2, 1.5)
		require.NoError(t, SetArticleBookmarked(ctx, db, kept.ID, true))

		candidates, err := ListRetentionCandidates(ctx, db, time.Now().Add(-30*24*time.Hour), 3.0)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, stale.ID, candidates[0].Article.ID)
	})
}

func TestArchiveArticles(t *testing.T) {
	ctx := context.Background()

	t.Run("should count only rows that transitioned", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		first := insertTestArticle(t, db, feed.ID, "https://example.com/post-1")
		second := insertTestArticle(t, db, feed.ID, "https://example.com/post-2")

		archived, err := ArchiveArticles(ctx, db, []int64{first.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, archived)

		archived, err = ArchiveArticles(ctx, db, []int64{first.ID, second.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, archived, "already archived rows do not count again")
	})

	t.Run("should be a no-op for an empty id list", func(t *testing.T) {
		db := testDB(t)

		archived, err := ArchiveArticles(ctx, db, nil)
		require.NoError(t, err)
		assert.Zero(t, archived)
	})
}

func TestArticleFlags(t *testing.T) {
	ctx := context.Background()

	t.Run("should flip read and bookmark markers", func(t *testing.T) {
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		article := insertTestArticle(t, db, feed.ID, "https://example.com/post-1")

		require.NoError(t, SetArticleRead(ctx, db, article.ID, true))
		require.NoError(t, SetArticleBookmarked(ctx, db, article.ID, true))

		got, err := GetArticleByID(ctx, db, article.ID)
		require.NoError(t, err)
		assert.True(t, got.IsRead)
		assert.True(t, got.IsBookmarked)

		require.NoError(t, SetArticleRead(ctx, db, article.ID, false))
		got, err = GetArticleByID(ctx, db, article.ID)
		require.NoError(t, err)
		assert.False(t, got.IsRead)
	})

	t.Run("should return not-found for an unknown id", func(t *testing.T) {
		db := testDB(t)

		assert.ErrorIs(t, SetArticleRead(ctx, db, 999, true), domain.ErrArticleNotFound)
		assert.ErrorIs(t, SetArticleBookmarked(ctx, db, 999, true), domain.ErrArticleNotFound)
	})
}

func TestLikedArticleIDs(t *testing.T) {
	t.Run("should collect distinct liked ids", func(t *testing.T) {
		ctx := context.Background()
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		liked := insertTestArticle(t, db, feed.ID, "https://example.com/liked")
		disliked := insertTestArticle(t, db, feed.ID, "https://example.com/disliked")

		for _, s := range []*domain.FeedbackSignal{
			{ArticleID: liked.ID, Topic: "go", Kind: domain.SignalLike, Magnitude: 1, Confidence: 1, CreatedAt: time.Now()},
			{ArticleID: liked.ID, Topic: "go", Kind: domain.SignalLike, Magnitude: 1, Confidence: 1, CreatedAt: time.Now()},
			{ArticleID: disliked.ID, Topic: "go", Kind: domain.SignalDislike, Magnitude: 1, Confidence: 1, CreatedAt: time.Now()},
		} {
			require.NoError(t, InsertSignal(ctx, db, s))
		}

		ids, err := LikedArticleIDs(ctx, db)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
		assert.Contains(t, ids, liked.ID)
	})
}

func TestGetStoreStats(t *testing.T) {
	t.Run("should count entities per table", func(t *testing.T) {
		ctx := context.Background()
		db := testDB(t)
		feed := insertTestFeed(t, db, "https://example.com/feed.xml", true)
		insertTestFeed(t, db, "https://other.example.com/feed.xml", false)
		article := insertTestArticle(t, db, feed.ID, "https://example.com/post-1")
		insertTestArticle(t, db, feed.ID, "https://example.com/post-2")
		insertTestScore(t, db, article.ID, 8, 0)
		_, err := ArchiveArticles(ctx, db, []int64{article.ID})
		require.NoError(t, err)

		stats, err := GetStoreStats(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Feeds)
		assert.Equal(t, 1, stats.FeedsEnabled)
		assert.Equal(t, 2, stats.Articles)
		assert.Equal(t, 1, stats.Archived)
		assert.Equal(t, 1, stats.Scored)
		assert.Equal(t, 0, stats.Signals)
	})
}
