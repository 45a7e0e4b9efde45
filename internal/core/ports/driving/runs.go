package driving

import (
	"context"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// RunHistoryService exposes the run ledger.
type RunHistoryService interface {
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Run, error)
}
