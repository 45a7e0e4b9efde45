package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Segmentize returns a copy of ls in which every segment longer than
// maxLength is split into ceil(length/maxLength) equal parts. Original
// vertices are kept. A non-positive maxLength returns a plain copy.
func Segmentize(ls orb.LineString, maxLength float64) orb.LineString {
	if len(ls) == 0 {
		return orb.LineString{}
	}
	out := make(orb.LineString, 0, len(ls))
	out = append(out, ls[0])
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		if maxLength > 0 {
			n := int(math.Ceil(planar.Distance(a, b) / maxLength))
			for k := 1; k < n; k++ {
				f := float64(k) / float64(n)
				out = append(out, orb.Point{a[0] + (b[0]-a[0])*f, a[1] + (b[1]-a[1])*f})
			}
		}
		out = append(out, b)
	}
	return out
}

// Reverse returns a reversed copy of ls.
func Reverse(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}
