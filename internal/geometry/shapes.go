package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// QuadrantSegments is the number of chords used per quarter circle.
const QuadrantSegments = 30

// Disk approximates a circle of the given radius by a regular polygon with
// 4*quadSegs vertices, wound counter-clockwise.
func Disk(center orb.Point, radius float64, quadSegs int) orb.Polygon {
	if quadSegs < 1 {
		quadSegs = QuadrantSegments
	}
	n := 4 * quadSegs
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, orb.Point{
			center[0] + radius*math.Cos(a),
			center[1] + radius*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// HalfDisk returns the half of the disk around center that lies ahead of
// the unit direction (dx, dy). The arc runs counter-clockwise from the
// right-hand normal to the left-hand normal with 2*quadSegs chords, and the
// diameter closes the ring through center. It is the exact overlap of Disk
// and Corridor for the same center, direction and radius.
func HalfDisk(center orb.Point, dx, dy, radius float64, quadSegs int) orb.Polygon {
	if quadSegs < 1 {
		quadSegs = QuadrantSegments
	}
	n := 2 * quadSegs
	start := math.Atan2(dy, dx) - math.Pi/2
	ring := make(orb.Ring, 0, n+2)
	for i := 0; i <= n; i++ {
		a := start + math.Pi*float64(i)/float64(n)
		ring = append(ring, orb.Point{
			center[0] + radius*math.Cos(a),
			center[1] + radius*math.Sin(a),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// Corridor returns the rectangle that starts at origin and extends forward
// along the unit direction (dx, dy). Both the length and the full width are
// 4*radius. Corners are origin+P, origin+P+D, origin-P+D, origin-P where P
// is the left-hand normal scaled to 2*radius and D the direction scaled to
// 2*radius.
func Corridor(origin orb.Point, dx, dy, radius float64) orb.Polygon {
	px, py := -dy*2*radius, dx*2*radius
	fx, fy := dx*2*radius, dy*2*radius
	ring := orb.Ring{
		{origin[0] + px, origin[1] + py},
		{origin[0] + px + fx, origin[1] + py + fy},
		{origin[0] - px + fx, origin[1] - py + fy},
		{origin[0] - px, origin[1] - py},
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// capsule covers every point within d of the segment a-b.
func capsule(a, b orb.Point, d float64, quadSegs int) orb.MultiPolygon {
	l := math.Hypot(b[0]-a[0], b[1]-a[1])
	if l == 0 {
		return orb.MultiPolygon{Disk(a, d, quadSegs)}
	}
	nx, ny := -(b[1]-a[1])/l*d, (b[0]-a[0])/l*d
	rect := orb.Ring{
		{a[0] - nx, a[1] - ny},
		{b[0] - nx, b[1] - ny},
		{b[0] + nx, b[1] + ny},
		{a[0] + nx, a[1] + ny},
		{a[0] - nx, a[1] - ny},
	}
	return Union(orb.MultiPolygon{{rect}}, orb.MultiPolygon{Disk(a, d, quadSegs)}, orb.MultiPolygon{Disk(b, d, quadSegs)})
}
