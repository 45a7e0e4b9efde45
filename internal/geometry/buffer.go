package geometry

import (
	"github.com/paulmach/orb"
)

// Buffer grows mp outward by d. The result is the union of mp with a capsule
// around every ring edge, so corners come out rounded. Non-positive d
// returns mp unchanged.
func Buffer(mp orb.MultiPolygon, d float64, quadSegs int) orb.MultiPolygon {
	if d <= 0 || len(mp) == 0 {
		return mp
	}
	parts := []orb.MultiPolygon{mp}
	for _, poly := range mp {
		for _, ring := range poly {
			for i := 0; i+1 < len(ring); i++ {
				parts = append(parts, capsule(ring[i], ring[i+1], d, quadSegs))
			}
		}
	}
	return Union(parts...)
}
