package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"attentiond/config"
	"attentiond/domain"
)

type evaluatePayload struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Content     string   `json:"content"`
	Interests   string   `json:"interests"`
	TopicNames  []string `json:"topic_names"`
	PublishedAt string   `json:"published_at,omitempty"`
}

type evaluateResponse struct {
	Summary      string   `json:"summary"`
	Reason       string   `json:"reason"`
	Topics       []string `json:"topics"`
	Relevance    float64  `json:"relevance"`
	Significance float64  `json:"significance"`
	Confidence   float64  `json:"confidence"`
}

// EvaluateArticle submits an article with the current interest profile
// to the scoring oracle and returns the structured judgement. Errors
// are classified so callers can tell a slow oracle from a dead one.
func EvaluateArticle(ctx context.Context, client *http.Client, article *domain.Article, profile *domain.InterestProfile, cfg *config.Config, logger *slog.Logger) (*domain.ScoreResult, error) {
	apiURL := cfg.Oracle.Host + cfg.Oracle.APIPath

	topicNames := make([]string, 0, len(profile.Topics))
	for _, t := range profile.Topics {
		if !t.Excluded {
			topicNames = append(topicNames, t.Name)
		}
	}

	payload := evaluatePayload{
		Title:      article.Title,
		URL:        article.URL,
		Content:    article.Content,
		Interests:  profile.Description,
		TopicNames: topicNames,
	}
	if ts := article.EffectivePublishedAt(); ts != nil {
		payload.PublishedAt = ts.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal evaluate payload", "error", err)
		return nil, err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, cfg.Oracle.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		logger.Error("Failed to create request", "error", err, "api_url", apiURL)
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Making request to scoring oracle",
		"api_url", apiURL,
		"article_id", article.ID,
		"timeout", cfg.Oracle.Timeout)

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, apiURL, logger)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Error("Oracle returned non-200 status", "status", resp.Status, "code", resp.StatusCode, "body", string(bodyBytes))
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("oracle request failed with status %s: %w", resp.Status, domain.ErrOracleUnavailable)
		}
		return nil, fmt.Errorf("oracle request failed with status %s: %w", resp.Status, domain.ErrOracleBadResponse)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("Failed to read response body", "error", err)
		return nil, err
	}

	var apiResponse evaluateResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		logger.Error("Failed to unmarshal oracle response", "error", err)
		return nil, fmt.Errorf("failed to parse oracle response: %w", domain.ErrOracleBadResponse)
	}

	if err := validateEvaluateResponse(&apiResponse); err != nil {
		logger.Error("Oracle response failed validation", "error", err, "article_id", article.ID)
		return nil, err
	}

	result := &domain.ScoreResult{
		Summary:      strings.TrimSpace(apiResponse.Summary),
		Reason:       strings.TrimSpace(apiResponse.Reason),
		Topics:       apiResponse.Topics,
		Relevance:    apiResponse.Relevance,
		Significance: apiResponse.Significance,
		Confidence:   apiResponse.Confidence,
	}

	logger.Info("Article evaluated",
		"article_id", article.ID,
		"relevance", result.Relevance,
		"significance", result.Significance,
		"topics", len(result.Topics))

	return result, nil
}

func classifyTransportError(err error, apiURL string, logger *slog.Logger) error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		logger.Error("Oracle request timed out", "error", err, "api_url", apiURL)
		return fmt.Errorf("oracle request: %w", domain.ErrOracleTimeout)
	}
	logger.Error("Failed to reach oracle", "error", err, "api_url", apiURL)
	return fmt.Errorf("oracle request: %v: %w", err, domain.ErrOracleUnavailable)
}

func validateEvaluateResponse(resp *evaluateResponse) error {
	if resp.Relevance < 0 || resp.Relevance > 10 {
		return fmt.Errorf("relevance %.2f out of range: %w", resp.Relevance, domain.ErrOracleBadResponse)
	}
	if resp.Significance < 0 || resp.Significance > 10 {
		return fmt.Errorf("significance %.2f out of range: %w", resp.Significance, domain.ErrOracleBadResponse)
	}
	if resp.Confidence < 0 || resp.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range: %w", resp.Confidence, domain.ErrOracleBadResponse)
	}
	return nil
}
