package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

// Ensure UpstreamService implements the interfaces.
var (
	_ driving.UpstreamService = (*UpstreamService)(nil)
	_ driving.ProfileService  = (*UpstreamService)(nil)
)

// UpstreamService runs the upstream elevation search.
type UpstreamService struct {
	progress driven.ProgressReporter
	runs     runTracker
}

// NewUpstreamService creates a new upstream service.
// The progress and ledger parameters are optional (can be nil).
func NewUpstreamService(progress driven.ProgressReporter, ledger driven.RunLedger) *UpstreamService {
	return &UpstreamService{
		progress: progress,
		runs:     runTracker{ledger: ledger, now: time.Now},
	}
}

// Run resolves every centerline inside every confinement polygon and
// writes the records to req.Sink.
func (s *UpstreamService) Run(ctx context.Context, req driving.UpstreamRequest) (*driving.UpstreamSummary, error) {
	logger.Section("Upstream Run")

	if req.Polygons == nil || req.Lines == nil || req.Store == nil || req.Sink == nil {
		return nil, fmt.Errorf("%w: polygons, lines, store and sink are required", domain.ErrInvalidInput)
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	run := s.runs.begin(ctx, domain.Run{
		Command: "upstream",
		Inputs:  req.Inputs,
		Output:  req.Output,
		Partial: req.Options.Partial,
	})
	summary, err := s.run(ctx, req)
	summary.RunID = run.ID
	s.runs.complete(ctx, run, summary.Records, err)
	if err != nil {
		return summary, err
	}

	logger.Info("Processed %d polygons, %d lines, wrote %d records",
		summary.Polygons, summary.Lines, summary.Records)
	return summary, nil
}

func (s *UpstreamService) run(ctx context.Context, req driving.UpstreamRequest) (*driving.UpstreamSummary, error) {
	opts := req.Options
	summary := &driving.UpstreamSummary{}

	polygons, total, err := selectFeatures(ctx, req.Polygons, opts.Partial)
	if err != nil {
		return summary, err
	}
	logger.Debug("Polygons to process: %d", total)

	resolver := newResolver(req.Store, opts)
	emitter := NewRecordEmitter(req.Sink, opts.ElevationKey)

	s.start("polygons", total)
	defer s.finish()

	for polygon, err := range polygons {
		if err != nil {
			return summary, fmt.Errorf("read polygon: %w", err)
		}
		confinement, ok := geometry.AsMultiPolygon(polygon.Geometry)
		if !ok {
			logger.Warn("Skipping polygon feature %d: %T is not areal", polygon.ID, polygon.Geometry)
			s.advance()
			continue
		}
		confinement = geometry.Buffer(confinement, opts.Grow, geometry.QuadrantSegments)
		summary.Polygons++

		for line, err := range req.Lines.Query(ctx, confinement) {
			if err != nil {
				return summary, fmt.Errorf("query lines for polygon %d: %w", polygon.ID, err)
			}
			parts, ok := lineParts(line.Geometry)
			if !ok {
				logger.Warn("Skipping line feature %d: %T is not a line", line.ID, line.Geometry)
				continue
			}
			summary.Lines++

			written := 0
			for _, part := range parts {
				records, err := resolver.Resolve(ctx, confinement, part)
				if err != nil {
					return summary, fmt.Errorf("resolve line %d in polygon %d: %w", line.ID, polygon.ID, err)
				}
				n, err := emitter.Emit(ctx, line, records)
				summary.Records += n
				written += n
				if err != nil {
					return summary, err
				}
			}
			if written == 0 {
				summary.EmptyLines++
				logger.Debug("Line %d in polygon %d: %v", line.ID, polygon.ID, domain.ErrNoRecords)
			}
		}
		s.advance()
	}
	return summary, nil
}

// Profile resolves a single line without a sink.
func (s *UpstreamService) Profile(ctx context.Context, confinement orb.MultiPolygon, line orb.LineString,
	store driven.RasterStore, opts domain.SearchOptions) ([]domain.Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: raster store is required", domain.ErrInvalidInput)
	}
	confinement = geometry.Buffer(confinement, opts.Grow, geometry.QuadrantSegments)
	records, err := newResolver(store, opts).Resolve(ctx, confinement, line)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNoRecords
	}
	return records, nil
}

func newResolver(store driven.RasterStore, opts domain.SearchOptions) *DirectionResolver {
	return NewDirectionResolver(
		NewWindowBuilder(opts),
		NewElevationSampler(store, opts.CellSize).AsOf(opts.At),
		opts.Separation,
	)
}

func (s *UpstreamService) start(label string, total int) {
	if s.progress != nil {
		s.progress.Start(label, total)
	}
}

func (s *UpstreamService) advance() {
	if s.progress != nil {
		s.progress.Advance(1)
	}
}

func (s *UpstreamService) finish() {
	if s.progress != nil {
		s.progress.Finish()
	}
}

// selectFeatures returns the features to process and how many there are.
// An empty partial selects every feature.
func selectFeatures(ctx context.Context, src driven.FeatureSource, partial string) (iter.Seq2[domain.Feature, error], int, error) {
	count, err := src.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count features: %w", err)
	}
	if partial == "" {
		return src.Features(ctx), count, nil
	}
	part, err := domain.ParsePartition(partial)
	if err != nil {
		return nil, 0, err
	}
	start, stop := part.Range(count)
	logger.Debug("Partition %s selects features [%d, %d)", part, start, stop)
	return src.Select(ctx, part), stop - start, nil
}

// lineParts returns the line strings making up g.
func lineParts(g orb.Geometry) ([]orb.LineString, bool) {
	switch v := g.(type) {
	case orb.LineString:
		return []orb.LineString{v}, true
	case orb.MultiLineString:
		return v, true
	default:
		return nil, false
	}
}
