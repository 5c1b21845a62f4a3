package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attentiond/domain"
	"attentiond/repository"
)

type feedbackService struct {
	articles repository.ArticleRepository
	scores   repository.ScoreRepository
	signals  repository.SignalRepository
	logger   *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(articles repository.ArticleRepository, scores repository.ScoreRepository, signals repository.SignalRepository, logger *slog.Logger) FeedbackService {
	return &feedbackService{
		articles: articles,
		scores:   scores,
		signals:  signals,
		logger:   logger,
	}
}

// Record validates and appends feedback signals for an article. With no
// explicit topic the signal fans out to every topic the oracle tagged
// the article with, each carrying the score's topic confidence so the
// adapter can discount uncertain attributions. An explicit topic
// narrows attribution to that topic alone.
func (s *feedbackService) Record(ctx context.Context, articleID int64, kind domain.SignalKind, magnitude float64, topic string) ([]*domain.FeedbackSignal, error) {
	if !domain.ValidSignalKind(kind) {
		return nil, fmt.Errorf("kind %q: %w", kind, domain.ErrInvalidSignalKind)
	}

	if magnitude < 0 || (kind == domain.SignalDwell && magnitude == 0) {
		return nil, fmt.Errorf("magnitude %v for kind %q: %w", magnitude, kind, domain.ErrInvalidMagnitude)
	}
	if magnitude == 0 {
		magnitude = 1
	}

	// FindByID reports a missing article via domain.ErrArticleNotFound.
	if _, err := s.articles.FindByID(ctx, articleID); err != nil {
		return nil, err
	}

	score, err := s.scores.FindByArticleID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	confidence := 1.0
	if score != nil {
		confidence = score.Confidence
	}

	var targets []string
	if topic != "" {
		targets = []string{topic}
	} else {
		if score == nil || len(score.Topics) == 0 {
			return nil, fmt.Errorf("article %d has no topic attribution: %w", articleID, domain.ErrArticleUnscored)
		}
		targets = score.Topics
	}

	now := time.Now().UTC()
	recorded := make([]*domain.FeedbackSignal, 0, len(targets))

	for _, target := range targets {
		signal := &domain.FeedbackSignal{
			ArticleID:  articleID,
			Topic:      target,
			Kind:       kind,
			Magnitude:  magnitude,
			Confidence: confidence,
			CreatedAt:  now,
		}
		if err := s.signals.Record(ctx, signal); err != nil {
			return recorded, err
		}
		recorded = append(recorded, signal)
	}

	s.logger.InfoContext(ctx, "feedback recorded",
		"article_id", articleID,
		"kind", kind,
		"topics", len(recorded))

	return recorded, nil
}
