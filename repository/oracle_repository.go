package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"attentiond/config"
	"attentiond/domain"
	"attentiond/driver"
)

// ScoreOracle implementation backed by the HTTP evaluation service.
type oracleRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *slog.Logger
}

// NewScoreOracle creates a new oracle repository. The shared client is
// reused across requests so connections stay pooled.
func NewScoreOracle(cfg *config.Config, logger *slog.Logger) ScoreOracle {
	return &oracleRepository{
		client: &http.Client{Timeout: cfg.Oracle.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Evaluate submits one article for scoring.
func (r *oracleRepository) Evaluate(ctx context.Context, article *domain.Article, profile *domain.InterestProfile) (*domain.ScoreResult, error) {
	r.logger.InfoContext(ctx, "evaluating article", "article_id", article.ID, "title", article.Title)

	result, err := driver.EvaluateArticle(ctx, r.client, article, profile, r.cfg, r.logger)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to evaluate article", "error", err, "article_id", article.ID)
		return nil, fmt.Errorf("failed to evaluate article: %w", err)
	}

	return result, nil
}
