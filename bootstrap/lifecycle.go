package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"attentiond/config"
	"attentiond/domain"
	"attentiond/orchestrator"
	"attentiond/utils/logger"
)

// Run is the main application entry point. It initializes all dependencies,
// starts the HTTP server and the processing cycle, then waits for a
// shutdown signal.
func Run(ctx context.Context) error {
	loggerConfig := logger.LoadConfigFromEnv()
	log := logger.New(loggerConfig)
	logger.Logger = log

	log.Info("Starting attentiond",
		"log_level", loggerConfig.Level,
		"log_format", loggerConfig.Format)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	deps, cleanup, err := BuildDependencies(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	// Seed the interest profile on first run so the scorer has topics
	// to evaluate against.
	seeded, err := deps.Profile.SeedIfEmpty(ctx, cfg.Profile.SeedPath)
	if err != nil {
		return fmt.Errorf("failed to seed interest profile: %w", err)
	}
	if seeded {
		log.Info("Seeded interest profile", "path", cfg.Profile.SeedPath)
	}

	httpServer := NewHTTPServer(deps)
	StartHTTPServer(httpServer, deps, log)

	jobs := startJobs(ctx, deps, cfg, log)

	log.Info("attentiond started successfully", "port", cfg.Server.Port)
	waitForShutdown(httpServer, jobs, cfg, log)

	return nil
}

func startJobs(ctx context.Context, deps *Dependencies, cfg *config.Config, log *slog.Logger) *orchestrator.JobGroup {
	jobs := orchestrator.NewJobGroup(ctx, log)

	jobs.Add(orchestrator.NewJobRunner(orchestrator.JobConfig{
		Name:            "cycle",
		Interval:        cfg.Cycle.Interval,
		RunImmediately:  cfg.Cycle.RunImmediately,
		BackoffOnErrors: []error{domain.ErrStoreBusy},
	}, func(ctx context.Context) error {
		_, err := deps.Cycle.Run(ctx)
		return err
	}, log))

	return jobs
}

func waitForShutdown(httpServer interface{ Shutdown(context.Context) error }, jobs *orchestrator.JobGroup, cfg *config.Config, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down attentiond")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	jobs.StopAll()

	log.Info("attentiond stopped")
}
