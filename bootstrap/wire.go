package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"

	"attentiond/config"
	"attentiond/driver"
	"attentiond/handler"
	"attentiond/orchestrator"
	"attentiond/repository"
	"attentiond/service"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	DB     *sql.DB
	Config *config.Config
	Logger *slog.Logger

	ArticleHandler  *handler.ArticleHandler
	FeedHandler     *handler.FeedHandler
	ProfileHandler  *handler.ProfileHandler
	FeedbackHandler *handler.FeedbackHandler
	StatusHandler   *handler.StatusHandler

	Cycle   *orchestrator.Cycle
	Profile service.ProfileService
}

// BuildDependencies constructs all application dependencies. Returns a
// cleanup function that should be deferred.
func BuildDependencies(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Dependencies, func(), error) {
	db, err := driver.Init(ctx, cfg.Database.Path, int(cfg.Database.BusyTimeout.Milliseconds()))
	if err != nil {
		return nil, nil, err
	}

	// Repositories
	feedRepo := repository.NewFeedRepository(db, log)
	articleRepo := repository.NewArticleRepository(db, log)
	scoreRepo := repository.NewScoreRepository(db, log)
	signalRepo := repository.NewSignalRepository(db, log)
	profileRepo := repository.NewProfileRepository(db, log)
	stateRepo := repository.NewCycleStateRepository(db, log)
	oracle := repository.NewScoreOracle(cfg, log)

	// Services
	profileService := service.NewProfileService(profileRepo, log)
	ingestService := service.NewIngestService(feedRepo, articleRepo,
		cfg.Cycle.IngestConcurrency, cfg.Cycle.FetchRatePerSec, log)
	scorerService := service.NewScorerService(articleRepo, scoreRepo, profileService, oracle,
		cfg.Cycle.ScoreBatchSize, cfg.Cycle.ScoreConcurrency, log)
	adapterService := service.NewAdapterService(signalRepo, profileRepo, stateRepo, log)
	rankService := service.NewRankService(articleRepo, scoreRepo, profileService, log)
	retentionService := service.NewRetentionService(articleRepo,
		cfg.Retention.MaxAge, cfg.Retention.RankThreshold, log)
	feedbackService := service.NewFeedbackService(articleRepo, scoreRepo, signalRepo, log)
	readerService := service.NewReaderService(articleRepo, profileService, log)

	cycle := orchestrator.NewCycle(
		ingestService,
		scorerService,
		adapterService,
		rankService,
		retentionService,
		profileService,
		stateRepo,
		orchestrator.CycleConfig{RescoreWindow: cfg.Cycle.RescoreWindow},
		log,
	)

	deps := &Dependencies{
		DB:     db,
		Config: cfg,
		Logger: log,

		ArticleHandler:  handler.NewArticleHandler(readerService, articleRepo, scoreRepo, log),
		FeedHandler:     handler.NewFeedHandler(feedRepo, log),
		ProfileHandler:  handler.NewProfileHandler(profileService, log),
		FeedbackHandler: handler.NewFeedbackHandler(feedbackService, log),
		StatusHandler:   handler.NewStatusHandler(articleRepo, stateRepo, log),

		Cycle:   cycle,
		Profile: profileService,
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}

	return deps, cleanup, nil
}
