package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"attentiond/domain"
	"attentiond/driver"
)

// CycleStateRepository implementation.
type cycleStateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCycleStateRepository creates a new cycle state repository.
func NewCycleStateRepository(db *sql.DB, logger *slog.Logger) CycleStateRepository {
	return &cycleStateRepository{
		db:     db,
		logger: logger,
	}
}

// Get reads the singleton cycle state row.
func (r *cycleStateRepository) Get(ctx context.Context) (*domain.CycleState, error) {
	state, err := driver.GetCycleState(ctx, r.db)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to get cycle state", "error", err)
		return nil, fmt.Errorf("failed to get cycle state: %w", err)
	}

	return state, nil
}

// Update persists the run outcome fields of the cycle state.
func (r *cycleStateRepository) Update(ctx context.Context, state *domain.CycleState) error {
	if err := driver.UpdateCycleState(ctx, r.db, state); err != nil {
		r.logger.ErrorContext(ctx, "failed to update cycle state", "error", err)
		return fmt.Errorf("failed to update cycle state: %w", err)
	}

	return nil
}
