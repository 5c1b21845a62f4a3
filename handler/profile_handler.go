package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"attentiond/domain"
	"attentiond/service"
)

type profileResponse struct {
	Description         string                 `json:"description"`
	Topics              []domain.InterestTopic `json:"topics"`
	ExplorationFraction float64                `json:"exploration_fraction"`
	RescoreScheduled    bool                   `json:"rescore_scheduled,omitempty"`
}

// ProfileHandler serves the interest profile read/write endpoints.
type ProfileHandler struct {
	profile service.ProfileService
	logger  *slog.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profile service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profile: profile,
		logger:  logger,
	}
}

// Get serves GET /profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	profile, err := h.profile.Get(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		Description:         profile.Description,
		Topics:              profile.Topics,
		ExplorationFraction: profile.ExplorationFraction,
	})
}

// Update serves PUT /profile. The whole profile is replaced; adding or
// removing a topic schedules a rescore pass on the next cycle.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req domain.InterestProfile
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile payload")
	}

	for _, t := range req.Topics {
		if t.Name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "topic name is required")
		}
	}

	rescore, err := h.profile.Update(c.Request().Context(), &req)
	if err != nil {
		return err
	}

	updated, err := h.profile.Get(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profileResponse{
		Description:         updated.Description,
		Topics:              updated.Topics,
		ExplorationFraction: updated.ExplorationFraction,
		RescoreScheduled:    rescore,
	})
}
