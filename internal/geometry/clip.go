package geometry

import (
	"math"
	"sort"

	polyclip "github.com/ctessum/polyclip-go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// AsMultiPolygon converts areal geometries to a MultiPolygon.
// It reports false for points and lines.
func AsMultiPolygon(g orb.Geometry) (orb.MultiPolygon, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}, true
	case orb.MultiPolygon:
		return v, true
	case orb.Bound:
		return orb.MultiPolygon{v.ToPolygon()}, true
	case orb.Ring:
		return orb.MultiPolygon{{v}}, true
	default:
		return nil, false
	}
}

// Intersection returns the region common to every operand.
// An empty result is a nil MultiPolygon.
func Intersection(first orb.MultiPolygon, rest ...orb.MultiPolygon) orb.MultiPolygon {
	acc := toClip(first)
	for _, mp := range rest {
		if len(acc) == 0 {
			return nil
		}
		if !first.Bound().Intersects(mp.Bound()) {
			return nil
		}
		acc = acc.Construct(polyclip.INTERSECTION, toClip(mp))
	}
	return fromClip(acc)
}

// Union returns the region covered by any operand. Operands are merged
// pairwise so that each clip works on inputs of similar size.
func Union(parts ...orb.MultiPolygon) orb.MultiPolygon {
	polys := make([]polyclip.Polygon, 0, len(parts))
	for _, mp := range parts {
		if c := toClip(mp); len(c) > 0 {
			polys = append(polys, c)
		}
	}
	if len(polys) == 0 {
		return nil
	}
	for len(polys) > 1 {
		next := make([]polyclip.Polygon, 0, (len(polys)+1)/2)
		for i := 0; i+1 < len(polys); i += 2 {
			next = append(next, polys[i].Construct(polyclip.UNION, polys[i+1]))
		}
		if len(polys)%2 == 1 {
			next = append(next, polys[len(polys)-1])
		}
		polys = next
	}
	return fromClip(polys[0])
}

func toClip(mp orb.MultiPolygon) polyclip.Polygon {
	var out polyclip.Polygon
	for _, poly := range mp {
		for _, ring := range poly {
			n := len(ring)
			if n > 1 && ring[0] == ring[n-1] {
				n--
			}
			if n < 3 {
				continue
			}
			c := make(polyclip.Contour, n)
			for i := 0; i < n; i++ {
				c[i] = polyclip.Point{X: ring[i][0], Y: ring[i][1]}
			}
			out = append(out, c)
		}
	}
	return out
}

type contour struct {
	ring  orb.Ring
	area  float64
	probe orb.Point
	depth int
}

// fromClip rebuilds polygons from the flat contour list returned by the
// clipper. A contour nested inside an odd number of others is a hole and
// belongs to the smallest shell enclosing it.
func fromClip(p polyclip.Polygon) orb.MultiPolygon {
	var cs []*contour
	for _, c := range p {
		if len(c) < 3 {
			continue
		}
		ring := make(orb.Ring, 0, len(c)+1)
		for _, pt := range c {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		ring = append(ring, ring[0])
		a := signedArea(ring)
		if math.Abs(a) <= areaEpsilon(ring.Bound()) {
			continue
		}
		cs = append(cs, &contour{ring: ring, area: a, probe: interiorProbe(ring, a)})
	}
	if len(cs) == 0 {
		return nil
	}
	for i, c := range cs {
		for j, o := range cs {
			if i != j && planar.RingContains(o.ring, c.probe) {
				c.depth++
			}
		}
	}

	var shells, holes []*contour
	for _, c := range cs {
		if c.depth%2 == 0 {
			shells = append(shells, c)
		} else {
			holes = append(holes, c)
		}
	}
	sort.SliceStable(shells, func(i, j int) bool {
		return math.Abs(shells[i].area) < math.Abs(shells[j].area)
	})

	out := make(orb.MultiPolygon, len(shells))
	for i, s := range shells {
		out[i] = orb.Polygon{orient(s.ring, s.area, true)}
	}
	for _, h := range holes {
		for i, s := range shells {
			if math.Abs(s.area) > math.Abs(h.area) && planar.RingContains(s.ring, h.probe) {
				out[i] = append(out[i], orient(h.ring, h.area, false))
				break
			}
		}
	}
	return out
}

// orient winds shells counter-clockwise and holes clockwise.
func orient(r orb.Ring, area float64, shell bool) orb.Ring {
	if (area > 0) != shell {
		r.Reverse()
	}
	return r
}

func signedArea(r orb.Ring) float64 {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

func areaEpsilon(b orb.Bound) float64 {
	w, h := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	return 1e-12 * math.Max(w*h, 1e-300)
}

// interiorProbe returns a point just inside r, next to the midpoint of its
// longest edge.
func interiorProbe(r orb.Ring, area float64) orb.Point {
	best, bestLen := 0, -1.0
	for i := 0; i+1 < len(r); i++ {
		if l := planar.Distance(r[i], r[i+1]); l > bestLen {
			best, bestLen = i, l
		}
	}
	a, b := r[best], r[best+1]
	mx, my := (a[0]+b[0])/2, (a[1]+b[1])/2
	nx, ny := -(b[1]-a[1])/bestLen, (b[0]-a[0])/bestLen
	if area < 0 {
		nx, ny = -nx, -ny
	}
	eps := 1e-6 * math.Sqrt(math.Abs(area))
	if eps > bestLen/4 {
		eps = bestLen / 4
	}
	return orb.Point{mx + nx*eps, my + ny*eps}
}
