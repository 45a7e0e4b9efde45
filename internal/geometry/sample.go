package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SamplePoints lays a width by height grid over region and returns the
// sample location of every cell, row-major from the north-west, together
// with a flag telling whether the cell belongs to region.
//
// Areal regions use cell centers over their bounding box and keep the
// cells whose center is inside. A line sampled as a single row is walked
// instead: cell i sits at fraction (i+0.5)/width of the line length, so
// sloping lines are followed rather than their bounding box. Any other
// region keeps every cell.
func SamplePoints(region orb.Geometry, width, height int) ([]orb.Point, []bool) {
	n := width * height
	if n <= 0 || region == nil {
		return nil, nil
	}
	points := make([]orb.Point, n)
	inside := make([]bool, n)

	if height == 1 {
		if ls, ok := asLine(region); ok {
			total := planar.Length(ls)
			for i := 0; i < width; i++ {
				points[i] = pointAlong(ls, total*(float64(i)+0.5)/float64(width))
				inside[i] = true
			}
			return points, inside
		}
	}

	b := region.Bound()
	dx := (b.Max[0] - b.Min[0]) / float64(width)
	dy := (b.Max[1] - b.Min[1]) / float64(height)
	mp, areal := AsMultiPolygon(region)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			i := row*width + col
			p := orb.Point{b.Min[0] + (float64(col)+0.5)*dx, b.Max[1] - (float64(row)+0.5)*dy}
			points[i] = p
			inside[i] = !areal || Contains(mp, p)
		}
	}
	return points, inside
}

func asLine(g orb.Geometry) (orb.LineString, bool) {
	switch v := g.(type) {
	case orb.LineString:
		return v, len(v) > 0
	case orb.MultiLineString:
		var out orb.LineString
		for _, ls := range v {
			out = append(out, ls...)
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// pointAlong returns the point at distance d from the start of ls.
func pointAlong(ls orb.LineString, d float64) orb.Point {
	for i := 0; i+1 < len(ls); i++ {
		seg := planar.Distance(ls[i], ls[i+1])
		if d <= seg && seg > 0 {
			f := d / seg
			return orb.Point{
				ls[i][0] + (ls[i+1][0]-ls[i][0])*f,
				ls[i][1] + (ls[i+1][1]-ls[i][1])*f,
			}
		}
		d -= seg
	}
	return ls[len(ls)-1]
}
