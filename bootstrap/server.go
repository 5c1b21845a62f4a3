package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"

	appmiddleware "attentiond/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(deps *Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Custom error handler for consistent error responses
	e.HTTPErrorHandler = appmiddleware.CustomHTTPErrorHandler(deps.Logger)

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmiddleware.RequestIDMiddleware())
	e.Use(appmiddleware.LoggingMiddleware(deps.Logger))

	// API routes
	api := e.Group("/api/v1")
	api.GET("/health", deps.StatusHandler.Health)

	authed := api.Group("", appmiddleware.StaticBearerAuth(deps.Config.Server.AuthToken))
	authed.GET("/articles", deps.ArticleHandler.List)
	authed.GET("/articles/:id", deps.ArticleHandler.Get)
	authed.POST("/articles/:id/read", deps.ArticleHandler.MarkRead)
	authed.POST("/articles/:id/bookmark", deps.ArticleHandler.Bookmark)
	authed.POST("/feeds", deps.FeedHandler.Create)
	authed.GET("/feeds", deps.FeedHandler.List)
	authed.GET("/feeds/:id", deps.FeedHandler.Get)
	authed.DELETE("/feeds/:id", deps.FeedHandler.Delete)
	authed.POST("/feeds/:id/enabled", deps.FeedHandler.SetEnabled)
	authed.GET("/profile", deps.ProfileHandler.Get)
	authed.PUT("/profile", deps.ProfileHandler.Update)
	authed.POST("/feedback", deps.FeedbackHandler.Record)
	authed.GET("/stats", deps.StatusHandler.Stats)

	return e
}

// StartHTTPServer starts the HTTP server in a goroutine.
func StartHTTPServer(e *echo.Echo, deps *Dependencies, log *slog.Logger) {
	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	go func() {
		addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
		log.Info("Starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server stopped", "error", err)
		}
	}()
}
