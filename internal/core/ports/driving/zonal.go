package driving

import (
	"context"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// ZonalRequest describes one zonal statistics run.
type ZonalRequest struct {
	Source     driven.FeatureSource
	Store      driven.RasterStore
	Sink       driven.FeatureSink
	Statistics []domain.Statistic

	// Partial selects a partition "k/n"; empty processes every feature.
	Partial string

	// CellSize is the sampling resolution in map units.
	CellSize float64

	// Inputs and Output are recorded in the run ledger only.
	Inputs []string
	Output string
}

// ZonalSummary reports the outcome of a zonal run.
type ZonalSummary struct {
	RunID    string
	Features int
	Records  int
}

// ZonalService computes raster statistics for vector features.
type ZonalService interface {
	// Run samples the store under every feature and writes one record per
	// feature with the requested statistics.
	Run(ctx context.Context, req ZonalRequest) (*ZonalSummary, error)

	// Compute returns the statistics for a single geometry.
	Compute(ctx context.Context, feature domain.Feature, store driven.RasterStore,
		stats []domain.Statistic, cellSize float64) (map[string]float64, error)
}
