// ABOUTME: Feedback endpoint: the sole write path into the signal
// ABOUTME: store, feeding the weight adapter's next tick.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"attentiond/domain"
	"attentiond/service"
)

type feedbackRequest struct {
	ArticleID int64   `json:"article_id"`
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
	Topic     string  `json:"topic"`
}

type feedbackResponse struct {
	Recorded int      `json:"recorded"`
	Topics   []string `json:"topics"`
}

// FeedbackHandler serves POST /feedback.
type FeedbackHandler struct {
	feedback service.FeedbackService
	logger   *slog.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(feedback service.FeedbackService, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedback: feedback,
		logger:   logger,
	}
}

// Record validates the payload and appends the signal. Magnitude is
// dwell seconds for dwell signals and defaults to 1 for the rest.
func (h *FeedbackHandler) Record(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid feedback payload")
	}

	signals, err := h.feedback.Record(c.Request().Context(),
		req.ArticleID, domain.SignalKind(req.Kind), req.Magnitude, req.Topic)
	if err != nil {
		return err
	}

	resp := feedbackResponse{Recorded: len(signals)}
	for _, s := range signals {
		resp.Topics = append(resp.Topics, s.Topic)
	}

	return c.JSON(http.StatusCreated, resp)
}
