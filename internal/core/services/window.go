package services

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// windowSlack is the relative offset applied to the half-disk before
// clipping.
const windowSlack = 1e-9

// WindowBuilder builds the search window for a site: the part of the
// confinement polygon that is both within the search radius and ahead of
// the site.
type WindowBuilder struct {
	distance   float64
	multiplier float64
	quadSegs   int
}

// NewWindowBuilder creates a builder using the distance and multiplier
// of opts.
func NewWindowBuilder(opts domain.SearchOptions) *WindowBuilder {
	return &WindowBuilder{
		distance:   opts.Distance,
		multiplier: opts.Multiplier,
		quadSegs:   geometry.QuadrantSegments,
	}
}

// Radius returns the search radius at p: the configured distance, or the
// distance to the confinement boundary scaled by the multiplier when that
// is larger.
func (b *WindowBuilder) Radius(p orb.Point, confinement orb.MultiPolygon) float64 {
	r := b.distance
	if d := b.multiplier * geometry.BoundaryDistance(confinement, p); !math.IsInf(d, 0) && d > r {
		r = d
	}
	return r
}

// Window returns the search window for site and the radius used.
// Sites outside the confinement fail with domain.ErrOutsideConfinement;
// an empty intersection fails with domain.ErrEmptyWindow.
func (b *WindowBuilder) Window(site domain.Site, confinement orb.MultiPolygon) (orb.MultiPolygon, float64, error) {
	if !geometry.Contains(confinement, site.Point) {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrOutsideConfinement, site.Point)
	}
	if site.Direction.Length() == 0 {
		return nil, 0, fmt.Errorf("%w: site at %v has no direction", domain.ErrGeometryDegeneracy, site.Point)
	}

	r := b.Radius(site.Point, confinement)
	dx, dy := site.Direction.X, site.Direction.Y

	// The disk and the corridor share the trailing edge through the site, so
	// their overlap is the forward half-disk. It is drawn a hair ahead of the
	// site and inside the radius: the clipper drops regions that only touch
	// the bank or run along it, and with multiplier 1 the circle is tangent
	// to the nearest bank by construction.
	center := orb.Point{site.Point[0] + dx*r*windowSlack, site.Point[1] + dy*r*windowSlack}
	ahead := geometry.HalfDisk(center, dx, dy, r*(1-2*windowSlack), b.quadSegs)

	window := geometry.Intersection(confinement, orb.MultiPolygon{ahead})
	if len(window) == 0 {
		return nil, r, fmt.Errorf("%w: no overlap at %v", domain.ErrEmptyWindow, site.Point)
	}
	return window, r, nil
}
