package driven

import (
	"context"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// RasterStore samples elevation data.
type RasterStore interface {
	// Sample returns a grid of req.Width by req.Height cells covering the
	// bounding box of req.Region. Cells whose center lies outside the
	// region, or where the store has no data, hold the grid's NoData value.
	Sample(ctx context.Context, req domain.SampleRequest) (domain.Grid, error)

	// Close releases resources.
	Close() error
}
