package domain

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// SampleRequest asks a raster store for a grid of samples.
// The grid spans Region's bounding box, divided into Width by Height cells.
// Cells whose center is outside Region are no-data.
type SampleRequest struct {
	Region orb.Geometry
	Width  int
	Height int

	// Time, when set, asks for the surface as it was at that instant.
	// Stores return no-data from surfaces acquired later and ignore Time
	// for surfaces without an acquisition date.
	Time *time.Time
}

// GridSize returns the width and height of a grid covering bound at the
// given cell size, rounded up. Both are at least one.
func GridSize(bound orb.Bound, cellSize float64) (width, height int) {
	width = int(math.Ceil((bound.Max[0] - bound.Min[0]) / cellSize))
	height = int(math.Ceil((bound.Max[1] - bound.Min[1]) / cellSize))
	return max(width, 1), max(height, 1)
}

// Grid is a rectangular block of scalar samples.
// Values are row-major, starting at the north-west cell.
type Grid struct {
	Values []float64
	Width  int
	Height int

	// NoData marks cells without a valid sample.
	NoData float64

	// Bound is the spatial extent covered by the grid.
	Bound orb.Bound

	// Provenance describes where the values came from.
	Provenance string

	// Acquired is when the surface was captured. Zero when unknown.
	Acquired time.Time
}

// AvailableAt reports whether a surface acquired at acquired existed at t.
// A nil t or an unknown acquisition date always matches.
func AvailableAt(acquired time.Time, t *time.Time) bool {
	return t == nil || acquired.IsZero() || !acquired.After(*t)
}

// NewGrid returns a grid filled with the no-data value.
func NewGrid(width, height int, bound orb.Bound, noData float64) Grid {
	values := make([]float64, width*height)
	for i := range values {
		values[i] = noData
	}
	return Grid{
		Values: values,
		Width:  width,
		Height: height,
		NoData: noData,
		Bound:  bound,
	}
}

// Valid reports whether cell i holds a sample.
func (g Grid) Valid(i int) bool {
	v := g.Values[i]
	return v != g.NoData && !math.IsNaN(v)
}

// At returns the value at column col, row row.
func (g Grid) At(col, row int) float64 {
	return g.Values[row*g.Width+col]
}

// ValidValues returns the values of all valid cells in grid order.
func (g Grid) ValidValues() []float64 {
	out := make([]float64, 0, len(g.Values))
	for i, v := range g.Values {
		if g.Valid(i) {
			out = append(out, v)
		}
	}
	return out
}

// CellSize returns the cell width and height in spatial units.
func (g Grid) CellSize() (dx, dy float64) {
	if g.Width == 0 || g.Height == 0 {
		return 0, 0
	}
	return (g.Bound.Max[0] - g.Bound.Min[0]) / float64(g.Width),
		(g.Bound.Max[1] - g.Bound.Min[1]) / float64(g.Height)
}

// CellCenter returns the spatial center of cell (col, row).
func (g Grid) CellCenter(col, row int) orb.Point {
	dx, dy := g.CellSize()
	return orb.Point{
		g.Bound.Min[0] + (float64(col)+0.5)*dx,
		g.Bound.Max[1] - (float64(row)+0.5)*dy,
	}
}

// Locate returns the cell holding p. Points on the east or south edge
// belong to the last column or row.
func (g Grid) Locate(p orb.Point) (col, row int, ok bool) {
	dx, dy := g.CellSize()
	if dx <= 0 || dy <= 0 || !g.Bound.Contains(p) {
		return 0, 0, false
	}
	col = min(int((p[0]-g.Bound.Min[0])/dx), g.Width-1)
	row = min(int((g.Bound.Max[1]-p[1])/dy), g.Height-1)
	return col, row, true
}

// Lookup returns the valid value of the cell holding p.
func (g Grid) Lookup(p orb.Point) (float64, bool) {
	col, row, ok := g.Locate(p)
	if !ok {
		return 0, false
	}
	i := row*g.Width + col
	if i >= len(g.Values) || !g.Valid(i) {
		return 0, false
	}
	return g.Values[i], true
}
