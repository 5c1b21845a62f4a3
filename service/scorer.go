package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attentiond/domain"
	"attentiond/orchestrator"
	"attentiond/repository"
)

type scorerService struct {
	articles    repository.ArticleRepository
	scores      repository.ScoreRepository
	profile     ProfileService
	oracle      repository.ScoreOracle
	batchSize   int
	concurrency int
	logger      *slog.Logger
}

// NewScorerService creates a new scorer service.
func NewScorerService(articles repository.ArticleRepository, scores repository.ScoreRepository, profile ProfileService, oracle repository.ScoreOracle, batchSize, concurrency int, logger *slog.Logger) ScorerService {
	return &scorerService{
		articles:    articles,
		scores:      scores,
		profile:     profile,
		oracle:      oracle,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ScoreUnscored evaluates a bounded batch of unscored articles fetched
// since the cutoff. Each article is isolated: an oracle timeout or
// error leaves that article unscored for the next cycle and never
// fails the batch. Score writes are idempotent upserts.
func (s *scorerService) ScoreUnscored(ctx context.Context, since time.Time) (*domain.ScoringResult, error) {
	profile, err := s.profile.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load interest profile: %w", err)
	}

	articles, err := s.articles.FindUnscored(ctx, since, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find unscored articles: %w", err)
	}

	result := &domain.ScoringResult{ProcessedCount: len(articles)}
	if len(articles) == 0 {
		return result, nil
	}

	stage := orchestrator.Stage[*domain.Article, *domain.Score]{
		Name:        "score",
		Concurrency: s.concurrency,
		Process: func(ctx context.Context, article *domain.Article) (*domain.Score, error) {
			return s.scoreOne(ctx, article, profile)
		},
	}

	for _, res := range orchestrator.RunStage(ctx, stage, articles) {
		if res.Err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, res.Err)
			continue
		}
		result.SuccessCount++
	}

	s.logger.InfoContext(ctx, "scoring pass complete",
		"processed", result.ProcessedCount,
		"scored", result.SuccessCount,
		"failed", result.ErrorCount)

	return result, nil
}

// RescoreRecent drops scores for articles fetched after the cutoff so
// they pass through the oracle again under the updated profile, then
// immediately runs one scoring pass over them.
func (s *scorerService) RescoreRecent(ctx context.Context, cutoff time.Time) (*domain.ScoringResult, error) {
	deleted, err := s.scores.DeleteFetchedAfter(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "scores dropped for re-scoring", "count", deleted, "cutoff", cutoff)

	return s.ScoreUnscored(ctx, cutoff)
}

func (s *scorerService) scoreOne(ctx context.Context, article *domain.Article, profile *domain.InterestProfile) (*domain.Score, error) {
	evaluated, err := s.oracle.Evaluate(ctx, article, profile)
	if err != nil {
		return nil, fmt.Errorf("article %d: %w", article.ID, err)
	}

	score := &domain.Score{
		ArticleID:    article.ID,
		Relevance:    evaluated.Relevance,
		Significance: evaluated.Significance,
		Confidence:   evaluated.Confidence,
		Summary:      evaluated.Summary,
		Topics:       evaluated.Topics,
		Reason:       evaluated.Reason,
		ScoredAt:     time.Now().UTC(),
	}

	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("article %d: %w", article.ID, err)
	}

	return score, nil
}
