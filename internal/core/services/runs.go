package services

import (
	"context"
	"time"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

// Ensure RunHistoryService implements the interface.
var _ driving.RunHistoryService = (*RunHistoryService)(nil)

// RunHistoryService reads the run ledger.
type RunHistoryService struct {
	ledger driven.RunLedger
}

// NewRunHistoryService creates a run history service.
func NewRunHistoryService(ledger driven.RunLedger) *RunHistoryService {
	return &RunHistoryService{ledger: ledger}
}

// Recent returns up to limit runs, newest first.
func (s *RunHistoryService) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.ledger == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.ledger.Recent(ctx, limit)
}

// runTracker wraps an optional ledger. Ledger failures never fail a run;
// they are logged as warnings.
type runTracker struct {
	ledger driven.RunLedger
	now    func() time.Time
}

func (t runTracker) begin(ctx context.Context, run domain.Run) domain.Run {
	run.StartedAt = t.now()
	run.Status = domain.RunRunning
	if t.ledger == nil {
		return run
	}
	stored, err := t.ledger.Begin(ctx, run)
	if err != nil {
		logger.Warn("Could not record %s run: %v", run.Command, err)
		return run
	}
	return stored
}

func (t runTracker) complete(ctx context.Context, run domain.Run, records int, err error) {
	run.Finish(records, err, t.now())
	if t.ledger == nil || run.ID == "" {
		return
	}
	if lerr := t.ledger.Complete(ctx, run); lerr != nil {
		logger.Warn("Could not complete run %s: %v", run.ID, lerr)
	}
}
