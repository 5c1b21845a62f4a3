package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"attentiond/domain"
	"attentiond/repository"
)

type feedRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SiteURL  string `json:"site_url"`
	Category string `json:"category"`
}

type feedResponse struct {
	ID            int64   `json:"id"`
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	SiteURL       string  `json:"site_url"`
	Category      string  `json:"category"`
	Enabled       bool    `json:"enabled"`
	LastFetchedAt *string `json:"last_fetched_at"`
}

// FeedHandler serves feed registry endpoints.
type FeedHandler struct {
	feeds  repository.FeedRepository
	logger *slog.Logger
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(feeds repository.FeedRepository, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feeds:  feeds,
		logger: logger,
	}
}

// Create serves POST /feeds.
func (h *FeedHandler) Create(c echo.Context) error {
	var req feedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid feed payload")
	}
	if req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "feed url is required")
	}

	feed := &domain.Feed{
		URL:       req.URL,
		Title:     req.Title,
		SiteURL:   req.SiteURL,
		Category:  req.Category,
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.feeds.Create(c.Request().Context(), feed); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, buildFeedResponse(feed))
}

// List serves GET /feeds.
func (h *FeedHandler) List(c echo.Context) error {
	feeds, err := h.feeds.List(c.Request().Context(), c.QueryParam("enabled") == "true")
	if err != nil {
		return err
	}

	out := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, buildFeedResponse(f))
	}

	return c.JSON(http.StatusOK, out)
}

// Delete serves DELETE /feeds/:id. Articles already ingested stay
// behind and age out through retention.
func (h *FeedHandler) Delete(c echo.Context) error {
	id, err := feedID(c)
	if err != nil {
		return err
	}

	if err := h.feeds.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetEnabled serves POST /feeds/:id/enabled.
func (h *FeedHandler) SetEnabled(c echo.Context) error {
	id, err := feedID(c)
	if err != nil {
		return err
	}

	var req enabledRequest
	if err := c.Bind(&req); err != nil || req.Enabled == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "enabled flag is required")
	}

	if err := h.feeds.SetEnabled(c.Request().Context(), id, *req.Enabled); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"id": id, "enabled": *req.Enabled})
}

// Get serves GET /feeds/:id.
func (h *FeedHandler) Get(c echo.Context) error {
	id, err := feedID(c)
	if err != nil {
		return err
	}

	feed, err := h.feeds.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if feed == nil {
		return fmt.Errorf("feed %d: %w", id, domain.ErrFeedNotFound)
	}

	return c.JSON(http.StatusOK, buildFeedResponse(feed))
}

func feedID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid feed id")
	}
	return id, nil
}

func buildFeedResponse(f *domain.Feed) feedResponse {
	resp := feedResponse{
		ID:       f.ID,
		URL:      f.URL,
		Title:    f.Title,
		SiteURL:  f.SiteURL,
		Category: f.Category,
		Enabled:  f.Enabled,
	}
	if f.LastFetchedAt != nil {
		formatted := f.LastFetchedAt.UTC().Format(time.RFC3339)
		resp.LastFetchedAt = &formatted
	}
	return resp
}
