package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Contains reports whether p lies inside mp or on its boundary.
func Contains(mp orb.MultiPolygon, p orb.Point) bool {
	return planar.MultiPolygonContains(mp, p)
}

// BoundaryDistance returns the distance from p to the nearest ring of mp,
// holes included. It is +Inf for an empty MultiPolygon.
func BoundaryDistance(mp orb.MultiPolygon, p orb.Point) float64 {
	best := math.Inf(1)
	for _, poly := range mp {
		for _, ring := range poly {
			if len(ring) == 0 {
				continue
			}
			if d := planar.DistanceFrom(orb.LineString(ring), p); d < best {
				best = d
			}
		}
	}
	return best
}

// Distance returns zero when p is inside mp and the boundary distance
// otherwise.
func Distance(mp orb.MultiPolygon, p orb.Point) float64 {
	if Contains(mp, p) {
		return 0
	}
	return BoundaryDistance(mp, p)
}

// Nearest returns the part of mp closest to p. Parts containing p win;
// ties keep the earlier part.
func Nearest(mp orb.MultiPolygon, p orb.Point) (orb.Polygon, bool) {
	if len(mp) == 0 {
		return nil, false
	}
	best, bestDist := 0, math.Inf(1)
	for i, poly := range mp {
		d := Distance(orb.MultiPolygon{poly}, p)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return mp[best], true
}

// Intersects reports whether g shares at least one point with region.
// Points, lines and polygons are supported; other geometries fall back to
// a bounding box test.
func Intersects(g orb.Geometry, region orb.MultiPolygon) bool {
	if g == nil || len(region) == 0 || !g.Bound().Intersects(region.Bound()) {
		return false
	}
	switch v := g.(type) {
	case orb.Point:
		return Contains(region, v)
	case orb.MultiPoint:
		for _, p := range v {
			if Contains(region, p) {
				return true
			}
		}
		return false
	case orb.LineString:
		return lineIntersects(v, region)
	case orb.MultiLineString:
		for _, ls := range v {
			if lineIntersects(ls, region) {
				return true
			}
		}
		return false
	case orb.Polygon, orb.MultiPolygon, orb.Bound, orb.Ring:
		mp, _ := AsMultiPolygon(v)
		for _, poly := range mp {
			if len(poly) > 0 && lineIntersects(orb.LineString(poly[0]), region) {
				return true
			}
			for _, other := range region {
				if len(other) > 0 && len(other[0]) > 0 && planar.PolygonContains(poly, other[0][0]) {
					return true
				}
			}
		}
		return false
	default:
		return true
	}
}

func lineIntersects(ls orb.LineString, region orb.MultiPolygon) bool {
	for _, p := range ls {
		if Contains(region, p) {
			return true
		}
	}
	for i := 0; i+1 < len(ls); i++ {
		for _, poly := range region {
			for _, ring := range poly {
				for j := 0; j+1 < len(ring); j++ {
					if segmentsCross(ls[i], ls[i+1], ring[j], ring[j+1]) {
						return true
					}
				}
			}
		}
	}
	return false
}

func segmentsCross(a, b, c, d orb.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(c, d, a)) || (d2 == 0 && onSegment(c, d, b)) ||
		(d3 == 0 && onSegment(a, b, c)) || (d4 == 0 && onSegment(a, b, d))
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
