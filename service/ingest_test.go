package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attentiond/domain"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <link>https://example.com</link>
    <item>
      <title>First post</title>
      <link>https://example.com/first</link>
      <description>A first post</description>
      <pubDate>Mon, 23 Feb 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/second</link>
      <description>A second post</description>
    </item>
    <item>
      <title>No link at all</title>
      <description>unreachable</description>
    </item>
  </channel>
</rss>`

func rssServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestService_IngestAll(t *testing.T) {
	ctx := context.Background()

	t.Run("should store new articles from enabled feeds", func(t *testing.T) {
		srv := rssServer(t, http.StatusOK, rssFixture)

		feeds := &fakeFeedRepo{feeds: []*domain.Feed{
			{ID: 1, URL: srv.URL, Title: "example", Enabled: true},
		}}
		articles := &fakeArticleRepo{}
		svc := NewIngestService(feeds, articles, 2, 100, testLogger())

		results, total, err := svc.IngestAll(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.NoError(t, results[0].Err)
		assert.Equal(t, 2, total, "the linkless item is skipped")
		assert.Len(t, articles.articles, 2)
		assert.Contains(t, feeds.fetched, int64(1))
	})

	t.Run("should not refetch articles already stored", func(t *testing.T) {
		srv := rssServer(t, http.StatusOK, rssFixture)

		feeds := &fakeFeedRepo{feeds: []*domain.Feed{
			{ID: 1, URL: srv.URL, Enabled: true},
		}}
		articles := &fakeArticleRepo{}
		svc := NewIngestService(feeds, articles, 2, 100, testLogger())

		_, first, err := svc.IngestAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, first)

		_, second, err := svc.IngestAll(ctx)
		require.NoError(t, err)
		assert.Zero(t, second, "same URLs upsert as no-ops")
	})

	t.Run("should skip disabled feeds", func(t *testing.T) {
		srv := rssServer(t, http.StatusOK, rssFixture)

		feeds := &fakeFeedRepo{feeds: []*domain.Feed{
			{ID: 1, URL: srv.URL, Enabled: false},
		}}
		svc := NewIngestService(feeds, &fakeArticleRepo{}, 2, 100, testLogger())

		results, total, err := svc.IngestAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Zero(t, total)
	})

	t.Run("should isolate a broken feed from the healthy ones", func(t *testing.T) {
		good := rssServer(t, http.StatusOK, rssFixture)
		bad := rssServer(t, http.StatusInternalServerError, "")

		feeds := &fakeFeedRepo{feeds: []*domain.Feed{
			{ID: 1, URL: bad.URL, Title: "broken", Enabled: true},
			{ID: 2, URL: good.URL, Title: "healthy", Enabled: true},
		}}
		articles := &fakeArticleRepo{}
		svc := NewIngestService(feeds, articles, 2, 100, testLogger())

		results, total, err := svc.IngestAll(ctx)
		require.NoError(t, err, "per-feed failures never fail the pass")
		require.Len(t, results, 2)

		assert.Error(t, results[0].Err)
		assert.NoError(t, results[1].Err)
		assert.Equal(t, 2, total)
	})
}

func TestItemHelpers(t *testing.T) {
	t.Run("itemURL should fall back to an http GUID", func(t *testing.T) {
		assert.Equal(t, "https://example.com/x", itemURL(&gofeed.Item{Link: "https://example.com/x"}))
		assert.Equal(t, "https://example.com/y", itemURL(&gofeed.Item{GUID: "https://example.com/y"}))
		assert.Empty(t, itemURL(&gofeed.Item{GUID: "urn:uuid:not-a-url"}))
	})

	t.Run("itemContent should fall back to the description", func(t *testing.T) {
		assert.Equal(t, "full", itemContent(&gofeed.Item{Content: "full", Description: "short"}))
		assert.Equal(t, "short", itemContent(&gofeed.Item{Description: "short"}))
	})

	t.Run("itemDate should prefer published over updated", func(t *testing.T) {
		published := time.Date(2026, 2, 23, 10, 0, 0, 0, time.UTC)
		updated := time.Date(2026, 2, 24, 10, 0, 0, 0, time.UTC)

		got := itemDate(&gofeed.Item{PublishedParsed: &published, UpdatedParsed: &updated})
		require.NotNil(t, got)
		assert.Equal(t, published, *got)

		got = itemDate(&gofeed.Item{UpdatedParsed: &updated})
		require.NotNil(t, got)
		assert.Equal(t, updated, *got)

		assert.Nil(t, itemDate(&gofeed.Item{}))
	})
}
