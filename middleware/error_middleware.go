// ABOUTME: Centralized error handling for the API: maps domain sentinel
// ABOUTME: errors to HTTP statuses and hides internal details from clients.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"attentiond/domain"
	"attentiond/utils/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// CustomHTTPErrorHandler converts errors bubbling out of handlers into
// consistent JSON responses. Domain sentinels map to specific statuses;
// anything unrecognized is a 500 with a generic message, with the real
// error kept in the logs.
func CustomHTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		requestID := logger.RequestIDFromContext(ctx)

		status, resp := classify(err)

		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "request failed",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"error", err)
		} else {
			log.WarnContext(ctx, "request rejected",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"error", err)
		}

		if status == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", "5")
		}

		if jsonErr := c.JSON(status, resp); jsonErr != nil {
			log.ErrorContext(ctx, "failed to send error response", "request_id", requestID, "error", jsonErr)
		}
	}
}

func classify(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, domain.ErrArticleNotFound), errors.Is(err, domain.ErrFeedNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrFeedExists):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrArticleUnscored):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidSignalKind),
		errors.Is(err, domain.ErrInvalidMagnitude),
		errors.Is(err, domain.ErrInvalidTopic):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrStoreBusy):
		return http.StatusServiceUnavailable, errorResponse{Error: "store busy, retry shortly", Retryable: true}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := "request failed"
		if m, ok := httpErr.Message.(string); ok && httpErr.Code < http.StatusInternalServerError {
			msg = m
		}
		return httpErr.Code, errorResponse{Error: msg}
	}

	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}
