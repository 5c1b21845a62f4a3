package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"attentiond/repository"
)

type statusResponse struct {
	Status               string `json:"status"`
	LastCycleAt          string `json:"last_cycle_at,omitempty"`
	LastCycleError       string `json:"last_cycle_error,omitempty"`
	ConsecutiveSuccesses int    `json:"consecutive_successes"`
}

// StatusHandler serves health and store statistics endpoints.
type StatusHandler struct {
	articles repository.ArticleRepository
	state    repository.CycleStateRepository
	logger   *slog.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(articles repository.ArticleRepository, state repository.CycleStateRepository, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		articles: articles,
		state:    state,
		logger:   logger,
	}
}

// Health serves GET /health. The daemon tolerates stage failures, so a
// degraded cycle still reports healthy here; the cycle state carries
// the detail.
func (h *StatusHandler) Health(c echo.Context) error {
	state, err := h.state.Get(c.Request().Context())
	if err != nil {
		return err
	}

	resp := statusResponse{
		Status:               "healthy",
		LastCycleError:       state.LastError,
		ConsecutiveSuccesses: state.ConsecutiveSuccesses,
	}
	if state.LastRunAt != nil {
		resp.LastCycleAt = state.LastRunAt.UTC().Format(time.RFC3339)
	}

	return c.JSON(http.StatusOK, resp)
}

// Stats serves GET /stats with entity counts from the store.
func (h *StatusHandler) Stats(c echo.Context) error {
	stats, err := h.articles.Stats(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}
