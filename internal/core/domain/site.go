package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// Vector is a planar displacement.
type Vector struct {
	X, Y float64
}

// Length returns the Euclidean length.
func (v Vector) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Unit returns v scaled to length one.
// A zero vector has no direction and yields ErrDegenerateSegment.
func (v Vector) Unit() (Vector, error) {
	l := v.Length()
	if l == 0 {
		return Vector{}, ErrDegenerateSegment
	}
	return Vector{v.X / l, v.Y / l}, nil
}

// Scale returns v multiplied by f.
func (v Vector) Scale(f float64) Vector {
	return Vector{v.X * f, v.Y * f}
}

// Add returns p displaced by v.
func (v Vector) Add(p orb.Point) orb.Point {
	return orb.Point{p[0] + v.X, p[1] + v.Y}
}

// Site is one sample position on a centerline.
type Site struct {
	// Point is the sample location.
	Point orb.Point

	// Direction is the unit tangent of the segment starting at Point,
	// or of the last segment for the final vertex.
	Direction Vector
}

// Record is a resolved sample: a point and its elevation.
type Record struct {
	Point     orb.Point
	Elevation float64
}

// Elevations returns the elevation of each record.
func Elevations(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Elevation
	}
	return out
}
