package driven

import (
	"context"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// RunLedger records the history of command runs.
type RunLedger interface {
	// Begin stores a new run and returns it with its ID assigned.
	Begin(ctx context.Context, run domain.Run) (domain.Run, error)

	// Complete marks a run finished, storing its outcome.
	Complete(ctx context.Context, run domain.Run) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Run, error)
}
