package services

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// Sites discretizes line into sample sites no more than step apart.
// Every vertex of the segmentized line becomes a site facing the next
// vertex; the last vertex keeps the direction of the final segment. With
// reverse set, the line is walked from its end.
func Sites(line orb.LineString, step float64, reverse bool) ([]domain.Site, error) {
	if !(step > 0) {
		return nil, fmt.Errorf("%w: step must be positive, got %v", domain.ErrInvalidInput, step)
	}

	points := make(orb.LineString, 0, len(line))
	for _, p := range line {
		if len(points) > 0 && points[len(points)-1] == p {
			continue
		}
		points = append(points, p)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: line has fewer than two distinct vertices", domain.ErrDegenerateSegment)
	}

	points = geometry.Segmentize(points, step)
	if reverse {
		points = geometry.Reverse(points)
	}

	sites := make([]domain.Site, 0, len(points))
	var dir domain.Vector
	for i, p := range points {
		if i+1 < len(points) {
			next := points[i+1]
			d, err := domain.Vector{X: next[0] - p[0], Y: next[1] - p[1]}.Unit()
			if err != nil {
				continue
			}
			dir = d
		}
		sites = append(sites, domain.Site{Point: p, Direction: dir})
	}
	return sites, nil
}
