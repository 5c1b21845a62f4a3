package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attentiond/repository"
)

type rankService struct {
	articles repository.ArticleRepository
	scores   repository.ScoreRepository
	profile  ProfileService
	logger   *slog.Logger
}

// NewRankService creates a new rank materialization service.
func NewRankService(articles repository.ArticleRepository, scores repository.ScoreRepository, profile ProfileService, logger *slog.Logger) RankService {
	return &rankService{
		articles: articles,
		scores:   scores,
		profile:  profile,
		logger:   logger,
	}
}

// MaterializeRanks recomputes the composite rank for every scored
// active article against the current profile and persists the whole
// set in one transaction. Retention reads these materialized values.
func (s *rankService) MaterializeRanks(ctx context.Context, now time.Time) (int, error) {
	profile, err := s.profile.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load interest profile: %w", err)
	}

	scored, err := s.articles.ListScored(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list scored articles: %w", err)
	}

	if len(scored) == 0 {
		return 0, nil
	}

	ranks := make(map[int64]float64, len(scored))
	for _, sa := range scored {
		ranks[sa.Article.ID] = Rank(sa.Article, sa.Score, profile, now)
	}

	if err := s.scores.UpdateRanks(ctx, ranks); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "ranks materialized", "articles", len(ranks))

	return len(ranks), nil
}
