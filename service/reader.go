package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"attentiond/repository"
)

type readerService struct {
	articles repository.ArticleRepository
	profile  ProfileService
	logger   *slog.Logger
}

// NewReaderService creates a new reader service.
func NewReaderService(articles repository.ArticleRepository, profile ProfileService, logger *slog.Logger) ReaderService {
	return &readerService{
		articles: articles,
		profile:  profile,
		logger:   logger,
	}
}

// ForYou returns one page of the ranked listing. Ranks are computed
// live against the current profile, so weight adjustments show up
// without waiting for the next materialization. Unscored articles are
// excluded, not treated as zero-scored.
func (s *readerService) ForYou(ctx context.Context, limit int, cursor string) (*RankedPage, error) {
	profile, err := s.profile.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load interest profile: %w", err)
	}

	scored, err := s.articles.ListScored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored articles: %w", err)
	}

	if len(scored) == 0 {
		return &RankedPage{}, nil
	}

	now := time.Now().UTC()
	ranked := make([]*RankedArticle, len(scored))
	for i, sa := range scored {
		ranked[i] = &RankedArticle{
			Article: sa.Article,
			Score:   sa.Score,
			Rank:    roundRank(Rank(sa.Article, sa.Score, profile, now)),
		}
	}

	merged := mergeWithExploration(ranked, profile)

	if cursor != "" {
		if cursorRank, cursorID, ok := decodeCursor(cursor); ok {
			merged = pageAfterCursor(merged, cursorRank, cursorID)
		} else {
			s.logger.WarnContext(ctx, "invalid listing cursor, serving first page")
		}
	}

	hasMore := len(merged) > limit
	if hasMore {
		merged = merged[:limit]
	}

	page := &RankedPage{Articles: merged}
	if hasMore && len(merged) > 0 {
		last := merged[len(merged)-1]
		page.NextCursor = encodeCursor(last.Rank, last.Article.ID)
	}

	return page, nil
}

// roundRank keeps cursor tokens and response payloads stable.
func roundRank(rank float64) float64 {
	return math.Round(rank*10000) / 10000
}
