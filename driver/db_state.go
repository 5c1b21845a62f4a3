package driver

import (
	"context"
	"database/sql"

	"attentiond/domain"
)

// GetCycleState reads the orchestrator's singleton state row.
func GetCycleState(ctx context.Context, db *sql.DB) (*domain.CycleState, error) {
	var state domain.CycleState
	var lastRun sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT last_run_at, last_error, consecutive_successes, last_signal_id
		 FROM cycle_state WHERE id = 1`).
		Scan(&lastRun, &state.LastError, &state.ConsecutiveSuccesses, &state.LastSignalID)
	if err != nil {
		return nil, mapError(err)
	}
	if lastRun.Valid {
		t := lastRun.Time
		state.LastRunAt = &t
	}
	return &state, nil
}

// UpdateCycleState persists the run outcome fields. The signal
// watermark is owned by ApplyAdaptation and deliberately not touched
// here.
func UpdateCycleState(ctx context.Context, db *sql.DB, state *domain.CycleState) error {
	_, err := db.ExecContext(ctx,
		`UPDATE cycle_state SET last_run_at = ?, last_error = ?, consecutive_successes = ?
		 WHERE id = 1`,
		state.LastRunAt, state.LastError, state.ConsecutiveSuccesses)
	return mapError(err)
}
