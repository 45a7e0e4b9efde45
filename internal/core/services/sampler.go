package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// ElevationSampler reads the robust minimum elevation inside a window.
type ElevationSampler struct {
	store    driven.RasterStore
	cellSize float64
	at       *time.Time
}

// NewElevationSampler creates a sampler reading store at cellSize.
func NewElevationSampler(store driven.RasterStore, cellSize float64) *ElevationSampler {
	return &ElevationSampler{store: store, cellSize: cellSize}
}

// AsOf restricts sampling to surfaces acquired no later than t.
// A zero t lifts the restriction.
func (s *ElevationSampler) AsOf(t time.Time) *ElevationSampler {
	s.at = nil
	if !t.IsZero() {
		s.at = &t
	}
	return s
}

// ElevationAt returns the second-lowest valid sample of the window part
// nearest point. The lowest sample is discarded as a likely outlier.
func (s *ElevationSampler) ElevationAt(ctx context.Context, point orb.Point, window orb.MultiPolygon) (float64, error) {
	part, ok := geometry.Nearest(window, point)
	if !ok {
		return 0, fmt.Errorf("%w: window has no parts", domain.ErrEmptyWindow)
	}

	width, height := domain.GridSize(part.Bound(), s.cellSize)
	grid, err := s.store.Sample(ctx, domain.SampleRequest{Region: part, Width: width, Height: height, Time: s.at})
	if err != nil {
		return 0, fmt.Errorf("sample window at %v: %w", point, err)
	}

	values := grid.ValidValues()
	if len(values) < 2 {
		return 0, fmt.Errorf("%w: %d valid cells at %v", domain.ErrEmptyWindow, len(values), point)
	}
	sort.Float64s(values)
	return values[1], nil
}
