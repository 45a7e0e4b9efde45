package memory

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// Ensure SurfaceStore implements the interface.
var _ driven.RasterStore = (*SurfaceStore)(nil)

// SurfaceFunc returns the elevation at p, or false where there is no data.
type SurfaceFunc func(p orb.Point) (float64, bool)

// SurfaceStore is a raster store backed by a function of position.
type SurfaceStore struct {
	name   string
	noData float64
	fn     SurfaceFunc
}

// NewSurfaceStore creates a store sampling fn with the given sentinel.
func NewSurfaceStore(name string, noData float64, fn SurfaceFunc) *SurfaceStore {
	return &SurfaceStore{name: name, noData: noData, fn: fn}
}

// ConstantSurface returns a SurfaceFunc that is v everywhere.
func ConstantSurface(v float64) SurfaceFunc {
	return func(orb.Point) (float64, bool) { return v, true }
}

// PlaneSurface returns the plane z = c + a*x + b*y.
func PlaneSurface(a, b, c float64) SurfaceFunc {
	return func(p orb.Point) (float64, bool) { return c + a*p[0] + b*p[1], true }
}

// Sample evaluates the surface at every cell of the requested grid.
func (s *SurfaceStore) Sample(ctx context.Context, req domain.SampleRequest) (domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return domain.Grid{}, err
	}
	if req.Region == nil || req.Width <= 0 || req.Height <= 0 {
		return domain.Grid{}, fmt.Errorf("%w: empty sample request", domain.ErrInvalidInput)
	}
	grid := domain.NewGrid(req.Width, req.Height, req.Region.Bound(), s.noData)
	grid.Provenance = s.name
	points, inside := geometry.SamplePoints(req.Region, req.Width, req.Height)
	for i, p := range points {
		if !inside[i] {
			continue
		}
		if v, ok := s.fn(p); ok && !math.IsNaN(v) {
			grid.Values[i] = v
		}
	}
	return grid, nil
}

// Close is a no-op.
func (s *SurfaceStore) Close() error {
	return nil
}
