// ABOUTME: The background cycle: ingest, score, rank, retain, rescore
// ABOUTME: check, with every stage independently fault-isolated.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"attentiond/domain"
	"attentiond/repository"
)

// Ingester fetches all enabled feeds.
type Ingester interface {
	IngestAll(ctx context.Context) ([]domain.IngestResult, int, error)
}

// Scorer evaluates a bounded batch of unscored articles.
type Scorer interface {
	ScoreUnscored(ctx context.Context, since time.Time) (*domain.ScoringResult, error)
	RescoreRecent(ctx context.Context, cutoff time.Time) (*domain.ScoringResult, error)
}

// Adapter applies one weight adaptation tick.
type Adapter interface {
	Tick(ctx context.Context) (*domain.AdaptationResult, error)
}

// RankMaterializer persists fresh composite ranks for scored articles.
type RankMaterializer interface {
	MaterializeRanks(ctx context.Context, now time.Time) (int, error)
}

// Retainer archives aged low-rank articles.
type Retainer interface {
	Archive(ctx context.Context, now time.Time) ([]int64, error)
}

// RescoreFlag exposes the profile's needs_rescore preference.
type RescoreFlag interface {
	NeedsRescore(ctx context.Context) (bool, error)
	SetNeedsRescore(ctx context.Context, value bool) error
}

// CycleConfig tunes one cycle run.
type CycleConfig struct {
	RescoreWindow time.Duration // how far back scores are dropped on a rescore pass
}

// Cycle sequences the background pipeline. It is the sole writer of
// article and score mutation during a run; readers observe eventual,
// not transactional, consistency between stages.
type Cycle struct {
	ingester     Ingester
	scorer       Scorer
	adapter      Adapter
	materializer RankMaterializer
	retainer     Retainer
	rescore      RescoreFlag
	state        repository.CycleStateRepository
	config       CycleConfig
	logger       *slog.Logger
}

// NewCycle creates a new cycle.
func NewCycle(ingester Ingester, scorer Scorer, adapter Adapter, materializer RankMaterializer, retainer Retainer, rescore RescoreFlag, state repository.CycleStateRepository, config CycleConfig, logger *slog.Logger) *Cycle {
	return &Cycle{
		ingester:     ingester,
		scorer:       scorer,
		adapter:      adapter,
		materializer: materializer,
		retainer:     retainer,
		rescore:      rescore,
		state:        state,
		config:       config,
		logger:       logger,
	}
}

// Run executes one full cycle. Stage failures are caught, logged, and
// recorded; they never abort the cycle or the process. Unfinished work
// is simply picked up on the next tick, so recovery is implicit. Run
// itself only errors on cancellation or when the persistent cycle
// state cannot be read or written.
func (c *Cycle) Run(ctx context.Context) (*domain.CycleSummary, error) {
	started := time.Now().UTC()
	summary := &domain.CycleSummary{StageErrors: make(map[domain.CycleStage]error)}

	c.logger.InfoContext(ctx, "cycle starting", "at", started)

	stages := []struct {
		name domain.CycleStage
		fn   func(context.Context, *domain.CycleSummary)
	}{
		{domain.StageIngest, c.runIngest},
		{domain.StageScore, c.runScore},
		{domain.StageRankMaterialize, c.runRankMaterialize},
		{domain.StageRetention, c.runRetention},
		{domain.StageRescoreCheck, c.runRescoreCheck},
	}

	// Cancellation is checked between stages so shutdown never waits on
	// an unstarted stage.
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			c.logger.InfoContext(ctx, "cycle cancelled", "before_stage", stage.name)
			return summary, err
		}
		stage.fn(ctx, summary)
	}

	if err := c.recordRun(ctx, started, summary); err != nil {
		return summary, err
	}

	c.logger.InfoContext(ctx, "cycle complete",
		"fetched", summary.Fetched,
		"scored", summary.Scored,
		"ranked", summary.Ranked,
		"archived", summary.Archived,
		"rescored", summary.Rescored,
		"adapted_topics", summary.AdaptedTopics,
		"stage_errors", len(summary.StageErrors),
		"elapsed", time.Since(started))

	return summary, nil
}

func (c *Cycle) runIngest(ctx context.Context, summary *domain.CycleSummary) {
	results, total, err := c.ingester.IngestAll(ctx)
	if err != nil {
		c.failStage(ctx, summary, domain.StageIngest, err)
		return
	}

	for _, r := range results {
		if r.Err != nil {
			c.logger.WarnContext(ctx, "feed failed this cycle", "feed", r.Feed, "error", r.Err)
		}
	}

	summary.Fetched = total
}

// runScore considers every unscored active article; retention keeps
// the unscored backlog from growing without bound.
func (c *Cycle) runScore(ctx context.Context, summary *domain.CycleSummary) {
	outcome, err := c.scorer.ScoreUnscored(ctx, time.Time{})
	if err != nil {
		c.failStage(ctx, summary, domain.StageScore, err)
		return
	}

	summary.Scored = outcome.SuccessCount

	if outcome.ErrorCount > 0 {
		c.logger.WarnContext(ctx, "some articles stayed unscored, will retry next cycle",
			"failed", outcome.ErrorCount, "scored", outcome.SuccessCount)
	}
}

// runRankMaterialize starts with the adaptation tick so materialized
// ranks already reflect the weights learned from this cycle's signals.
func (c *Cycle) runRankMaterialize(ctx context.Context, summary *domain.CycleSummary) {
	adaptation, err := c.adapter.Tick(ctx)
	if err != nil {
		c.failStage(ctx, summary, domain.StageRankMaterialize, fmt.Errorf("adaptation: %w", err))
	} else {
		summary.AdaptedTopics = adaptation.AdaptedTopics
	}

	ranked, err := c.materializer.MaterializeRanks(ctx, time.Now().UTC())
	if err != nil {
		c.failStage(ctx, summary, domain.StageRankMaterialize, err)
		return
	}

	summary.Ranked = ranked
}

func (c *Cycle) runRetention(ctx context.Context, summary *domain.CycleSummary) {
	archived, err := c.retainer.Archive(ctx, time.Now().UTC())
	if err != nil {
		c.failStage(ctx, summary, domain.StageRetention, err)
		return
	}

	summary.Archived = len(archived)
}

// runRescoreCheck reacts to structural profile changes: drop scores
// for recent articles, score them against the new profile, then clear
// the flag. The flag survives a failed pass so the next cycle retries.
func (c *Cycle) runRescoreCheck(ctx context.Context, summary *domain.CycleSummary) {
	needed, err := c.rescore.NeedsRescore(ctx)
	if err != nil {
		c.failStage(ctx, summary, domain.StageRescoreCheck, err)
		return
	}
	if !needed {
		return
	}

	c.logger.InfoContext(ctx, "rescore flag set, re-scoring recent articles")

	cutoff := time.Now().UTC().Add(-c.config.RescoreWindow)
	outcome, err := c.scorer.RescoreRecent(ctx, cutoff)
	if err != nil {
		c.failStage(ctx, summary, domain.StageRescoreCheck, err)
		return
	}

	summary.Rescored = outcome.SuccessCount

	if err := c.rescore.SetNeedsRescore(ctx, false); err != nil {
		c.failStage(ctx, summary, domain.StageRescoreCheck, err)
	}
}

func (c *Cycle) failStage(ctx context.Context, summary *domain.CycleSummary, stage domain.CycleStage, err error) {
	summary.StageErrors[stage] = err
	c.logger.ErrorContext(ctx, "cycle stage failed", "stage", stage, "error", err)
}

// recordRun persists the cycle outcome. A cycle with stage errors still
// counts as a completed run; the errors are kept for inspection.
func (c *Cycle) recordRun(ctx context.Context, started time.Time, summary *domain.CycleSummary) error {
	state, err := c.state.Get(ctx)
	if err != nil {
		return err
	}

	state.LastRunAt = &started
	if len(summary.StageErrors) == 0 {
		state.LastError = ""
		state.ConsecutiveSuccesses++
	} else {
		state.LastError = stageErrorString(summary.StageErrors)
		state.ConsecutiveSuccesses = 0
	}

	return c.state.Update(ctx, state)
}

func stageErrorString(stageErrors map[domain.CycleStage]error) string {
	parts := make([]string, 0, len(stageErrors))
	for stage, err := range stageErrors {
		parts = append(parts, fmt.Sprintf("%s: %v", stage, err))
	}
	return strings.Join(parts, "; ")
}
