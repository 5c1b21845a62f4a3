package domain

import (
	"time"
)

// CycleStage names one stage of the background cycle.
type CycleStage string

const (
	StageIngest          CycleStage = "ingest"
	StageScore           CycleStage = "score"
	StageRankMaterialize CycleStage = "rank_materialize"
	StageRetention       CycleStage = "retention"
	StageRescoreCheck    CycleStage = "rescore_check"
)

// CycleState is the orchestrator-owned singleton persisted across
// restarts. LastSignalID is the watermark of the last feedback signal
// consumed by weight adaptation.
type CycleState struct {
	LastRunAt            *time.Time `db:"last_run_at"`
	LastError            string     `db:"last_error"`
	ConsecutiveSuccesses int        `db:"consecutive_successes"`
	LastSignalID         int64      `db:"last_signal_id"`
}

// CycleSummary reports what one cycle accomplished.
type CycleSummary struct {
	StageErrors   map[CycleStage]error
	Fetched       int
	Scored        int
	Ranked        int
	Archived      int
	Rescored      int
	AdaptedTopics int
}

// ScoringResult reports one scoring pass over unscored articles.
type ScoringResult struct {
	Errors         []error
	ProcessedCount int
	SuccessCount   int
	ErrorCount     int
}

// AdaptationResult reports one weight adaptation tick.
type AdaptationResult struct {
	AdaptedTopics   int
	ConsumedSignals int
	GatedTopics     int
	Watermark       int64
}

// StoreStats is the counter snapshot backing the stats endpoint.
type StoreStats struct {
	Feeds        int `json:"feeds"`
	FeedsEnabled int `json:"feeds_enabled"`
	Articles     int `json:"articles"`
	Archived     int `json:"archived"`
	Scored       int `json:"scored"`
	Signals      int `json:"signals"`
	Topics       int `json:"topics"`
}

// ScoreResult is the oracle's response for a single article.
type ScoreResult struct {
	Summary      string   `json:"summary"`
	Reason       string   `json:"reason"`
	Topics       []string `json:"topics"`
	Relevance    float64  `json:"relevance"`
	Significance float64  `json:"significance"`
	Confidence   float64  `json:"confidence"`
}
