// ABOUTME: Feed ingestion: fetches all enabled feeds concurrently and
// ABOUTME: stores deduplicated article candidates for the scoring stage.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"attentiond/domain"
	"attentiond/repository"
)

type ingestService struct {
	feeds       repository.FeedRepository
	articles    repository.ArticleRepository
	parser      *gofeed.Parser
	limiter     *rate.Limiter
	concurrency int
	logger      *slog.Logger
}

// NewIngestService creates a new ingest service. fetchRatePerSec paces
// outbound fetches globally across all feeds.
func NewIngestService(feeds repository.FeedRepository, articles repository.ArticleRepository, concurrency int, fetchRatePerSec float64, logger *slog.Logger) IngestService {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &ingestService{
		feeds:       feeds,
		articles:    articles,
		parser:      gofeed.NewParser(),
		limiter:     rate.NewLimiter(rate.Limit(fetchRatePerSec), 1),
		concurrency: concurrency,
		logger:      logger,
	}
}

// IngestAll fetches every enabled feed and stores articles not seen
// before, keyed by URL. Each feed's failure is isolated: the result
// slice carries per-feed errors and the method itself only fails when
// the feed list cannot be read.
func (s *ingestService) IngestAll(ctx context.Context) ([]domain.IngestResult, int, error) {
	feeds, err := s.feeds.List(ctx, true)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enabled feeds: %w", err)
	}

	if len(feeds) == 0 {
		s.logger.InfoContext(ctx, "no enabled feeds to ingest")
		return nil, 0, nil
	}

	results := make([]domain.IngestResult, len(feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			count, err := s.ingestFeed(gctx, feed)
			results[i] = domain.IngestResult{Feed: feed.Label(), NewCount: count, Err: err}
			if err != nil {
				s.logger.ErrorContext(gctx, "feed ingestion failed", "feed", feed.Label(), "error", err)
			}
			return nil
		})
	}

	// Workers never return errors; Wait only observes context cancellation.
	if err := g.Wait(); err != nil {
		return results, 0, err
	}

	total := 0
	for _, r := range results {
		total += r.NewCount
	}

	s.logger.InfoContext(ctx, "ingestion complete", "feeds", len(feeds), "new_articles", total)

	return results, total, nil
}

func (s *ingestService) ingestFeed(ctx context.Context, feed *domain.Feed) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	parsed, err := s.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch feed %s: %w", feed.URL, err)
	}

	now := time.Now().UTC()
	newCount := 0

	for _, item := range parsed.Items {
		url := itemURL(item)
		if url == "" {
			continue
		}

		article := &domain.Article{
			FeedID:      feed.ID,
			URL:         url,
			Title:       item.Title,
			Author:      itemAuthor(item),
			Summary:     item.Description,
			Content:     itemContent(item),
			PublishedAt: itemDate(item),
			FetchedAt:   now,
		}

		created, err := s.articles.Upsert(ctx, article)
		if err != nil {
			return newCount, err
		}
		if created {
			newCount++
		}
	}

	if err := s.feeds.MarkFetched(ctx, feed.ID, now); err != nil {
		return newCount, err
	}

	s.logger.InfoContext(ctx, "feed ingested", "feed", feed.Label(), "items", len(parsed.Items), "new", newCount)

	return newCount, nil
}

// itemURL prefers the link; some feeds carry the URL in the GUID.
func itemURL(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}

// itemContent prefers the full content body, falling back to the
// description.
func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

// itemDate extracts the entry date with published/updated fallback.
func itemDate(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		return &t
	}
	return nil
}
