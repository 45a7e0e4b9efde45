package driving

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// UpstreamRequest describes one upstream elevation run.
// Sources, store and sink are owned by the caller and are not closed.
type UpstreamRequest struct {
	// Polygons holds the confinement polygons.
	Polygons driven.FeatureSource

	// Lines holds the centerlines to sample.
	Lines driven.FeatureSource

	// Store provides elevations. Use services.NewMinimumStore to fuse
	// several stores.
	Store driven.RasterStore

	// Sink receives one record per resolved point.
	Sink driven.FeatureSink

	// Options controls the search.
	Options domain.SearchOptions

	// Inputs and Output name the paths behind the sources and sink.
	// They are recorded in the run ledger only.
	Inputs []string
	Output string
}

// UpstreamSummary reports the outcome of a run.
type UpstreamSummary struct {
	// RunID identifies the run in the ledger, empty when no ledger is set.
	RunID string

	// Polygons is the number of confinement polygons processed.
	Polygons int

	// Lines is the number of polygon and line pairs resolved.
	Lines int

	// EmptyLines counts pairs that produced no records.
	EmptyLines int

	// Records is the number of records written to the sink.
	Records int
}

// UpstreamService runs the upstream elevation search over whole layers.
type UpstreamService interface {
	// Run processes every polygon of req.Polygons, or the partition named
	// by req.Options.Partial.
	Run(ctx context.Context, req UpstreamRequest) (*UpstreamSummary, error)
}

// ProfileService resolves a single centerline inside one confinement polygon.
type ProfileService interface {
	// Profile returns the resolved records for line, ordered in the
	// direction of descending elevation trend.
	Profile(ctx context.Context, confinement orb.MultiPolygon, line orb.LineString,
		store driven.RasterStore, opts domain.SearchOptions) ([]domain.Record, error)
}
