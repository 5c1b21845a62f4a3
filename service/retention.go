package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attentiond/repository"
)

type retentionService struct {
	articles repository.ArticleRepository
	maxAge   time.Duration
	minRank  float64
	logger   *slog.Logger
}

// NewRetentionService creates a new retention service. maxAge and
// minRank default to one week and rank 3 at the config layer.
func NewRetentionService(articles repository.ArticleRepository, maxAge time.Duration, minRank float64, logger *slog.Logger) RetentionService {
	return &retentionService{
		articles: articles,
		maxAge:   maxAge,
		minRank:  minRank,
		logger:   logger,
	}
}

// Archive soft-archives articles older than the retention window whose
// materialized rank fell below the threshold, unless bookmarked or
// liked. Already-archived articles are untouched, so repeated runs are
// no-ops.
func (s *retentionService) Archive(ctx context.Context, now time.Time) ([]int64, error) {
	cutoff := now.Add(-s.maxAge)

	candidates, err := s.articles.RetentionCandidates(ctx, cutoff, s.minRank)
	if err != nil {
		return nil, fmt.Errorf("failed to collect retention candidates: %w", err)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	liked, err := s.articles.LikedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect liked exemptions: %w", err)
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		if _, exempt := liked[c.Article.ID]; exempt {
			continue
		}
		ids = append(ids, c.Article.ID)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	archived, err := s.articles.Archive(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to archive articles: %w", err)
	}

	s.logger.InfoContext(ctx, "retention pass complete",
		"candidates", len(candidates),
		"archived", archived,
		"cutoff", cutoff)

	return ids, nil
}
