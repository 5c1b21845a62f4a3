// ABOUTME: Article endpoints: ranked and default listings, single get,
// ABOUTME: and the read/bookmark state flips.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"attentiond/domain"
	"attentiond/repository"
	"attentiond/service"
)

type scoreOut struct {
	Relevance    float64  `json:"relevance"`
	Significance float64  `json:"significance"`
	Summary      string   `json:"summary"`
	Topics       []string `json:"topics"`
	Reason       string   `json:"reason"`
}

type articleResponse struct {
	ID           int64     `json:"id"`
	FeedID       int64     `json:"feed_id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Summary      string    `json:"summary"`
	PublishedAt  *string   `json:"published_at"`
	IsRead       bool      `json:"is_read"`
	IsBookmarked bool      `json:"is_bookmarked"`
	IsArchived   bool      `json:"is_archived"`
	Score        *scoreOut `json:"score"`
	Rank         *float64  `json:"rank,omitempty"`
}

type forYouPage struct {
	Articles   []articleResponse `json:"articles"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ArticleHandler serves the article read paths.
type ArticleHandler struct {
	reader   service.ReaderService
	articles repository.ArticleRepository
	scores   repository.ScoreRepository
	logger   *slog.Logger
}

// NewArticleHandler creates a new article handler.
func NewArticleHandler(reader service.ReaderService, articles repository.ArticleRepository, scores repository.ScoreRepository, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{
		reader:   reader,
		articles: articles,
		scores:   scores,
		logger:   logger,
	}
}

// List serves GET /articles. view=foryou returns the ranked listing
// with exploration slots and cursor pagination; anything else is the
// plain relevance-ordered listing.
func (h *ArticleHandler) List(c echo.Context) error {
	limit := intQuery(c, "limit", 20, 1, 100)

	if c.QueryParam("view") == "foryou" {
		page, err := h.reader.ForYou(c.Request().Context(), limit, c.QueryParam("cursor"))
		if err != nil {
			return err
		}

		out := forYouPage{Articles: make([]articleResponse, 0, len(page.Articles)), NextCursor: page.NextCursor}
		for _, ra := range page.Articles {
			out.Articles = append(out.Articles, buildArticleResponse(ra.Article, ra.Score, &ra.Rank))
		}

		return c.JSON(http.StatusOK, out)
	}

	filter := domain.ArticleFilter{
		Limit:           limit,
		Offset:          intQuery(c, "offset", 0, 0, 1<<30),
		ScoredOnly:      c.QueryParam("scored_only") == "true",
		IncludeArchived: c.QueryParam("include_archived") == "true",
	}
	if raw := c.QueryParam("min_score"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			filter.MinRelevance = v
		}
	}
	if raw := c.QueryParam("feed_id"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.FeedID = v
		}
	}

	articles, err := h.articles.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	out := make([]articleResponse, 0, len(articles))
	for _, sa := range articles {
		out = append(out, buildArticleResponse(sa.Article, sa.Score, nil))
	}

	return c.JSON(http.StatusOK, out)
}

// Get serves GET /articles/:id.
func (h *ArticleHandler) Get(c echo.Context) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}

	article, err := h.articles.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if article == nil {
		return fmt.Errorf("article %d: %w", id, domain.ErrArticleNotFound)
	}

	score, err := h.scores.FindByArticleID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, buildArticleResponse(article, score, nil))
}

type flagRequest struct {
	Value *bool `json:"value"`
}

// MarkRead serves POST /articles/:id/read. Body {"value": false}
// un-reads; an empty body marks read.
func (h *ArticleHandler) MarkRead(c echo.Context) error {
	return h.setFlag(c, "is_read", h.articles.SetRead)
}

// Bookmark serves POST /articles/:id/bookmark.
func (h *ArticleHandler) Bookmark(c echo.Context) error {
	return h.setFlag(c, "is_bookmarked", h.articles.SetBookmarked)
}

func (h *ArticleHandler) setFlag(c echo.Context, field string, set func(ctx context.Context, id int64, value bool) error) error {
	id, err := articleID(c)
	if err != nil {
		return err
	}

	value := true
	var req flagRequest
	if err := c.Bind(&req); err == nil && req.Value != nil {
		value = *req.Value
	}

	if err := set(c.Request().Context(), id, value); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"id": id, field: value})
}

func intQuery(c echo.Context, name string, def, min, max int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func articleID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid article id")
	}
	return id, nil
}

func buildArticleResponse(a *domain.Article, s *domain.Score, rank *float64) articleResponse {
	resp := articleResponse{
		ID:           a.ID,
		FeedID:       a.FeedID,
		URL:          a.URL,
		Title:        a.Title,
		Author:       a.Author,
		Summary:      a.Summary,
		IsRead:       a.IsRead,
		IsBookmarked: a.IsBookmarked,
		IsArchived:   a.IsArchived,
		Rank:         rank,
	}

	if a.PublishedAt != nil {
		formatted := a.PublishedAt.UTC().Format(time.RFC3339)
		resp.PublishedAt = &formatted
	}

	if s != nil {
		resp.Score = &scoreOut{
			Relevance:    s.Relevance,
			Significance: s.Significance,
			Summary:      s.Summary,
			Topics:       s.Topics,
			Reason:       s.Reason,
		}
	}

	return resp
}
