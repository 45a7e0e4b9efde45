package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

// DirectionResolver walks a centerline and picks the traversal direction
// that runs uphill. The first pass walks the line as stored. If its first
// half is on average higher than its second half, the line runs downhill
// and the pass is repeated from the other end.
type DirectionResolver struct {
	windows    *WindowBuilder
	sampler    *ElevationSampler
	separation float64
}

// NewDirectionResolver creates a resolver.
func NewDirectionResolver(windows *WindowBuilder, sampler *ElevationSampler, separation float64) *DirectionResolver {
	return &DirectionResolver{windows: windows, sampler: sampler, separation: separation}
}

// Resolve returns one record per site that produced an elevation.
func (r *DirectionResolver) Resolve(ctx context.Context, confinement orb.MultiPolygon, line orb.LineString) ([]domain.Record, error) {
	forward, err := r.Pass(ctx, confinement, line, false)
	if err != nil {
		return nil, err
	}
	if len(forward) < 2 {
		return forward, nil
	}

	elevations := domain.Elevations(forward)
	half := len(elevations) / 2
	head, tail := stat.Mean(elevations[:half], nil), stat.Mean(elevations[half:], nil)
	if head <= tail {
		return forward, nil
	}

	logger.Debug("Line descends (%.3f > %.3f), walking in reverse", head, tail)
	return r.Pass(ctx, confinement, line, true)
}

// Pass walks line once in the given direction. Sites whose window is
// empty, outside the confinement or degenerate are skipped.
func (r *DirectionResolver) Pass(ctx context.Context, confinement orb.MultiPolygon, line orb.LineString, reverse bool) ([]domain.Record, error) {
	sites, err := Sites(line, r.separation, reverse)
	if err != nil {
		if errors.Is(err, domain.ErrDegenerateSegment) {
			logger.Debug("Skipping degenerate line: %v", err)
			return nil, nil
		}
		return nil, err
	}

	records := make([]domain.Record, 0, len(sites))
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		window, _, err := r.windows.Window(site, confinement)
		if err != nil {
			if domain.IsSkippable(err) {
				logger.Debug("Skipping site: %v", err)
				continue
			}
			return nil, fmt.Errorf("build window: %w", err)
		}
		z, err := r.sampler.ElevationAt(ctx, site.Point, window)
		if err != nil {
			if domain.IsSkippable(err) {
				logger.Debug("Skipping site: %v", err)
				continue
			}
			return nil, err
		}
		records = append(records, domain.Record{Point: site.Point, Elevation: z})
	}
	return records, nil
}
