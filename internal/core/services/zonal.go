package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

// Ensure ZonalService implements the interface.
var _ driving.ZonalService = (*ZonalService)(nil)

// ZonalService computes raster statistics under vector features.
type ZonalService struct {
	progress driven.ProgressReporter
	runs     runTracker
}

// NewZonalService creates a new zonal statistics service.
// The progress and ledger parameters are optional (can be nil).
func NewZonalService(progress driven.ProgressReporter, ledger driven.RunLedger) *ZonalService {
	return &ZonalService{
		progress: progress,
		runs:     runTracker{ledger: ledger, now: time.Now},
	}
}

// Run writes every source feature to the sink with one column per
// requested statistic.
func (s *ZonalService) Run(ctx context.Context, req driving.ZonalRequest) (*driving.ZonalSummary, error) {
	logger.Section("Zonal Statistics")

	if req.Source == nil || req.Store == nil || req.Sink == nil {
		return nil, fmt.Errorf("%w: source, store and sink are required", domain.ErrInvalidInput)
	}
	if len(req.Statistics) == 0 {
		return nil, fmt.Errorf("%w: no statistics requested", domain.ErrInvalidInput)
	}
	if !(req.CellSize > 0) {
		req.CellSize = domain.DefaultCellSize
	}

	run := s.runs.begin(ctx, domain.Run{
		Command: "zonal",
		Inputs:  req.Inputs,
		Output:  req.Output,
		Partial: req.Partial,
	})
	summary, err := s.run(ctx, req)
	summary.RunID = run.ID
	s.runs.complete(ctx, run, summary.Records, err)
	if err != nil {
		return summary, err
	}
	logger.Info("Processed %d features, wrote %d records", summary.Features, summary.Records)
	return summary, nil
}

func (s *ZonalService) run(ctx context.Context, req driving.ZonalRequest) (*driving.ZonalSummary, error) {
	summary := &driving.ZonalSummary{}

	features, total, err := selectFeatures(ctx, req.Source, req.Partial)
	if err != nil {
		return summary, err
	}
	if s.progress != nil {
		s.progress.Start("features", total)
		defer s.progress.Finish()
	}

	for feature, err := range features {
		if err != nil {
			return summary, fmt.Errorf("read feature: %w", err)
		}
		summary.Features++

		values, err := s.Compute(ctx, feature, req.Store, req.Statistics, req.CellSize)
		if err != nil {
			return summary, err
		}
		attrs := feature.Attributes.Clone()
		for _, st := range req.Statistics {
			attrs.Set(st.Column, values[st.Column])
		}
		if err := req.Sink.Append(ctx, feature.Geometry, attrs); err != nil {
			return summary, fmt.Errorf("append feature %d: %w", feature.ID, err)
		}
		summary.Records++
		if s.progress != nil {
			s.progress.Advance(1)
		}
	}
	return summary, nil
}

// Compute samples store under feature and returns each statistic by
// column name. Statistics without any valid cell are NaN.
func (s *ZonalService) Compute(ctx context.Context, feature domain.Feature, store driven.RasterStore,
	stats []domain.Statistic, cellSize float64) (map[string]float64, error) {
	width, height, err := SampleShape(feature.Geometry, cellSize)
	if err != nil {
		return nil, fmt.Errorf("feature %d: %w", feature.ID, err)
	}
	grid, err := store.Sample(ctx, domain.SampleRequest{Region: feature.Geometry, Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("sample feature %d: %w", feature.ID, err)
	}

	values := grid.ValidValues()
	sort.Float64s(values)
	out := make(map[string]float64, len(stats))
	for _, st := range stats {
		out[st.Column] = Reduce(st, values, len(grid.Values))
	}
	return out, nil
}

// SampleShape returns the grid size used to sample g at cellSize.
// Areas use their bounding box, lines their length as a single row and
// points a single cell.
func SampleShape(g orb.Geometry, cellSize float64) (width, height int, err error) {
	switch v := g.(type) {
	case orb.Point, orb.MultiPoint:
		return 1, 1, nil
	case orb.LineString, orb.MultiLineString:
		n := int(math.Ceil(planar.Length(v) / cellSize))
		return max(n, 1), 1, nil
	case orb.Polygon, orb.MultiPolygon, orb.Bound:
		width, height = domain.GridSize(v.Bound(), cellSize)
		return width, height, nil
	case nil:
		return 0, 0, fmt.Errorf("%w: missing geometry", domain.ErrUnsupportedType)
	default:
		return 0, 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, g.GeoJSONType())
	}
}

// Reduce computes one statistic over sorted valid values. size is the
// total number of cells, valid or not.
func Reduce(st domain.Statistic, sorted []float64, size int) float64 {
	switch st.Kind {
	case domain.StatCount:
		return float64(len(sorted))
	case domain.StatSize:
		return float64(size)
	}
	if len(sorted) == 0 {
		return math.NaN()
	}

	switch st.Kind {
	case domain.StatValue:
		if size != 1 {
			return math.NaN()
		}
		return sorted[0]
	case domain.StatMin:
		return floats.Min(sorted)
	case domain.StatMax:
		return floats.Max(sorted)
	case domain.StatSum:
		return floats.Sum(sorted)
	case domain.StatMean:
		return stat.Mean(sorted, nil)
	case domain.StatStd:
		_, std := stat.PopMeanStdDev(sorted, nil)
		return std
	case domain.StatMedian:
		return percentile(sorted, 50)
	case domain.StatPercentile:
		return percentile(sorted, st.Percentile)
	default:
		return math.NaN()
	}
}

// percentile interpolates linearly between the two nearest ranks, the
// same estimator numpy uses by default.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := (float64(len(sorted)) - 1) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
