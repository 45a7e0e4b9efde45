// Package asciigrid reads ESRI ASCII grids, plain or gzip-compressed.
//
// The header holds ncols, nrows, the lower-left corner or center
// (xllcorner/yllcorner or xllcenter/yllcenter), cellsize and an optional
// nodata_value, which defaults to -9999. Values follow row by row from
// the north.
package asciigrid

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// DefaultNoData is used when the header has no nodata_value.
const DefaultNoData = -9999

// Load reads the grid at path. Files starting with the gzip magic bytes
// are decompressed.
func Load(path string) (domain.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return domain.Grid{}, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	g, err := Read(r)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("reading %s: %w", path, err)
	}
	g.Provenance = path
	return g, nil
}

// Open loads the grid at path as a raster store.
func Open(path string) (*memory.SurfaceStore, error) {
	g, err := Load(path)
	if err != nil {
		return nil, err
	}
	return memory.NewSurfaceStore(path, g.NoData, g.Lookup), nil
}

type header struct {
	ncols, nrows int
	x, y         float64
	center       bool
	cellSize     float64
	noData       float64
}

// Read parses an ASCII grid.
func Read(r io.Reader) (domain.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	h, first, err := readHeader(sc)
	if err != nil {
		return domain.Grid{}, err
	}

	// the cell size is the same in both directions
	x0, y0 := h.x, h.y
	if h.center {
		x0 -= h.cellSize / 2
		y0 -= h.cellSize / 2
	}
	bound := orb.Bound{
		Min: orb.Point{x0, y0},
		Max: orb.Point{x0 + float64(h.ncols)*h.cellSize, y0 + float64(h.nrows)*h.cellSize},
	}
	g := domain.NewGrid(h.ncols, h.nrows, bound, h.noData)

	n := 0
	next := first
	for {
		if next == "" {
			if !sc.Scan() {
				break
			}
			next = sc.Text()
		}
		if n == len(g.Values) {
			return domain.Grid{}, fmt.Errorf("%w: more than %d values", domain.ErrInvalidInput, len(g.Values))
		}
		v, err := strconv.ParseFloat(next, 64)
		if err != nil {
			return domain.Grid{}, fmt.Errorf("%w: value %d: %q", domain.ErrInvalidInput, n, next)
		}
		g.Values[n] = v
		n++
		next = ""
	}
	if err := sc.Err(); err != nil {
		return domain.Grid{}, err
	}
	if n != len(g.Values) {
		return domain.Grid{}, fmt.Errorf("%w: %d values, want %d", domain.ErrInvalidInput, n, len(g.Values))
	}
	return g, nil
}

// readHeader consumes key/value pairs until the first value token, which
// it returns.
func readHeader(sc *bufio.Scanner) (header, string, error) {
	h := header{noData: DefaultNoData}
	seen := map[string]bool{}
	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			if err := h.check(seen); err != nil {
				return h, "", err
			}
			return h, sc.Text(), nil
		}
		if !sc.Scan() {
			return h, "", fmt.Errorf("%w: header key %q without value", domain.ErrInvalidInput, key)
		}
		value := sc.Text()
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return h, "", fmt.Errorf("%w: header %s = %q", domain.ErrInvalidInput, key, value)
		}
		switch key {
		case "ncols":
			h.ncols = int(f)
		case "nrows":
			h.nrows = int(f)
		case "xllcorner", "xllcenter":
			h.x = f
			h.center = key == "xllcenter"
		case "yllcorner", "yllcenter":
			h.y = f
		case "cellsize":
			h.cellSize = f
		case "nodata_value":
			h.noData = f
		default:
			return h, "", fmt.Errorf("%w: unknown header %q", domain.ErrInvalidInput, key)
		}
		seen[strings.Replace(key, "center", "corner", 1)] = true
	}
	if err := sc.Err(); err != nil {
		return h, "", err
	}
	if err := h.check(seen); err != nil {
		return h, "", err
	}
	return h, "", nil
}

func (h header) check(seen map[string]bool) error {
	for _, key := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if !seen[key] {
			return fmt.Errorf("%w: missing header %s", domain.ErrInvalidInput, key)
		}
	}
	if h.ncols <= 0 || h.nrows <= 0 || !(h.cellSize > 0) {
		return fmt.Errorf("%w: %dx%d grid with cell size %g", domain.ErrInvalidInput, h.ncols, h.nrows, h.cellSize)
	}
	return nil
}
