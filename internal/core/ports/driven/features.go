package driven

import (
	"context"
	"iter"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// FeatureSource provides read access to a layer of vector features.
// Iteration order is stable for a given source, which keeps partition
// selection reproducible across processes.
type FeatureSource interface {
	// Count returns the number of features in the layer.
	Count(ctx context.Context) (int, error)

	// Features yields every feature in layer order.
	Features(ctx context.Context) iter.Seq2[domain.Feature, error]

	// Query yields the features whose geometry intersects region.
	Query(ctx context.Context, region orb.Geometry) iter.Seq2[domain.Feature, error]

	// Select yields the contiguous slice of features belonging to the
	// given partition.
	Select(ctx context.Context, part domain.Partition) iter.Seq2[domain.Feature, error]

	// Fields returns the attribute schema of the layer.
	Fields() []domain.Field

	// Close releases resources.
	Close() error
}

// FeatureSink receives output features.
// Sinks are created with a fixed schema; attributes not in the schema
// are ignored by the sink.
type FeatureSink interface {
	// Append writes one feature.
	Append(ctx context.Context, geometry orb.Geometry, attrs *domain.Attributes) error

	// Fields returns the output schema.
	Fields() []domain.Field

	// Close flushes pending writes and releases resources.
	Close() error
}
