package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/geometry"
)

// DefaultTileSize is the tile edge length, in cells, used by ImportRaster.
const DefaultTileSize = 256

// RasterInfo describes a stored raster layer.
type RasterInfo struct {
	Name       string
	Width      int
	Height     int
	Bound      orb.Bound
	NoData     float64
	TileSize   int
	Provenance string
	Acquired   time.Time
}

// RasterLayer is a tiled raster in a Store.
type RasterLayer struct {
	store *Store
	info  RasterInfo

	// owned layers close their store on Close.
	owned bool
}

var _ driven.RasterStore = (*RasterLayer)(nil)

type tileKey struct{ row, col int }

// OpenRasterLayer opens "file.db#layer". Without a suffix the database
// must hold exactly one raster.
func OpenRasterLayer(ctx context.Context, path string) (*RasterLayer, error) {
	file, name := SplitPath(path)
	store, err := Open(file)
	if err != nil {
		return nil, err
	}
	if name == "" {
		infos, err := store.Rasters(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		if len(infos) != 1 {
			store.Close()
			return nil, fmt.Errorf("%w: %s holds %d rasters, name one with #layer", domain.ErrInvalidInput, file, len(infos))
		}
		name = infos[0].Name
	}
	layer, err := store.Raster(ctx, name)
	if err != nil {
		store.Close()
		return nil, err
	}
	layer.owned = true
	return layer, nil
}

// ImportRaster stores grid as a raster layer named name, replacing any
// raster of the same name. Values are stored as float32.
func (s *Store) ImportRaster(ctx context.Context, name string, grid domain.Grid, tileSize int) error {
	if name == "" {
		return fmt.Errorf("%w: empty raster name", domain.ErrInvalidInput)
	}
	if grid.Width <= 0 || grid.Height <= 0 || len(grid.Values) != grid.Width*grid.Height {
		return fmt.Errorf("%w: raster %q has no cells", domain.ErrInvalidInput, name)
	}
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM rasters WHERE name = ?", name); err != nil {
		return fmt.Errorf("replacing raster: %w", err)
	}
	b := grid.Bound
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rasters (name, width, height, min_x, min_y, max_x, max_y, no_data, tile_size, provenance, acquired_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, name, grid.Width, grid.Height, b.Min[0], b.Min[1], b.Max[0], b.Max[1],
		grid.NoData, tileSize, nullString(grid.Provenance), formatNullableTime(grid.Acquired)); err != nil {
		return fmt.Errorf("creating raster: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO raster_tiles (raster, tile_row, tile_col, data) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	tile := make([]float32, tileSize*tileSize)
	for tr := 0; tr*tileSize < grid.Height; tr++ {
		for tc := 0; tc*tileSize < grid.Width; tc++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for r := 0; r < tileSize; r++ {
				for c := 0; c < tileSize; c++ {
					row, col := tr*tileSize+r, tc*tileSize+c
					v := grid.NoData
					if row < grid.Height && col < grid.Width {
						v = grid.At(col, row)
					}
					tile[r*tileSize+c] = float32(v)
				}
			}
			if _, err := stmt.ExecContext(ctx, name, tr, tc, float32SliceToBytes(tile)); err != nil {
				return fmt.Errorf("saving tile %d,%d: %w", tr, tc, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rasters returns every stored raster layer.
func (s *Store) Rasters(ctx context.Context) ([]RasterInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, width, height, min_x, min_y, max_x, max_y, no_data, tile_size, provenance, acquired_at
		FROM rasters ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying rasters: %w", err)
	}
	defer rows.Close()

	var out []RasterInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		info, err := scanRasterInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rasters: %w", err)
	}
	return out, nil
}

// Raster opens a stored raster layer.
func (s *Store) Raster(ctx context.Context, name string) (*RasterLayer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, width, height, min_x, min_y, max_x, max_y, no_data, tile_size, provenance, acquired_at
		FROM rasters WHERE name = ?
	`, name)
	if err != nil {
		return nil, fmt.Errorf("querying raster: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying raster: %w", err)
		}
		return nil, fmt.Errorf("raster %q: %w", name, domain.ErrNotFound)
	}
	info, err := scanRasterInfo(rows)
	if err != nil {
		return nil, err
	}
	return &RasterLayer{store: s, info: info}, nil
}

func scanRasterInfo(rows *sql.Rows) (RasterInfo, error) {
	var info RasterInfo
	var provenance, acquired sql.NullString
	if err := rows.Scan(&info.Name, &info.Width, &info.Height,
		&info.Bound.Min[0], &info.Bound.Min[1], &info.Bound.Max[0], &info.Bound.Max[1],
		&info.NoData, &info.TileSize, &provenance, &acquired); err != nil {
		return info, fmt.Errorf("scanning raster: %w", err)
	}
	info.Provenance = provenance.String
	info.Acquired = parseNullableTime(acquired)
	return info, nil
}

// Info returns the raster description.
func (l *RasterLayer) Info() RasterInfo {
	return l.info
}

// Sample resamples the raster at the cell centers of the requested grid,
// taking the value of the raster cell holding each center. Cells outside
// the region or the raster are no-data, and so is every cell when the
// raster was acquired after req.Time.
func (l *RasterLayer) Sample(ctx context.Context, req domain.SampleRequest) (domain.Grid, error) {
	if req.Region == nil || req.Width <= 0 || req.Height <= 0 {
		return domain.Grid{}, fmt.Errorf("%w: empty sample request", domain.ErrInvalidInput)
	}
	out := domain.NewGrid(req.Width, req.Height, req.Region.Bound(), l.info.NoData)
	out.Provenance = fmt.Sprintf("%s#%s", l.store.Path(), l.info.Name)
	out.Acquired = l.info.Acquired
	if !domain.AvailableAt(l.info.Acquired, req.Time) {
		return out, nil
	}

	// header grid, used only to locate cells
	frame := domain.Grid{Width: l.info.Width, Height: l.info.Height, Bound: l.info.Bound}
	points, inside := geometry.SamplePoints(req.Region, req.Width, req.Height)

	type hit struct {
		i        int
		col, row int
	}
	var hits []hit
	lo, hi := tileKey{math.MaxInt, math.MaxInt}, tileKey{-1, -1}
	ts := l.info.TileSize
	for i, p := range points {
		if !inside[i] {
			continue
		}
		col, row, ok := frame.Locate(p)
		if !ok {
			continue
		}
		hits = append(hits, hit{i, col, row})
		k := tileKey{row / ts, col / ts}
		lo = tileKey{min(lo.row, k.row), min(lo.col, k.col)}
		hi = tileKey{max(hi.row, k.row), max(hi.col, k.col)}
	}
	if len(hits) == 0 {
		return out, nil
	}

	tiles, err := l.tiles(ctx, lo, hi)
	if err != nil {
		return domain.Grid{}, err
	}
	for _, h := range hits {
		tile, ok := tiles[tileKey{h.row / ts, h.col / ts}]
		if !ok {
			continue
		}
		j := (h.row%ts)*ts + h.col%ts
		if j >= len(tile) {
			continue
		}
		v := float64(tile[j])
		if math.IsNaN(v) || v == float64(float32(l.info.NoData)) {
			continue
		}
		out.Values[h.i] = v
	}
	return out, nil
}

// tiles loads the decoded tiles in the inclusive range [lo, hi].
func (l *RasterLayer) tiles(ctx context.Context, lo, hi tileKey) (map[tileKey][]float32, error) {
	rows, err := l.store.db.QueryContext(ctx, `
		SELECT tile_row, tile_col, data FROM raster_tiles
		WHERE raster = ? AND tile_row BETWEEN ? AND ? AND tile_col BETWEEN ? AND ?
	`, l.info.Name, lo.row, hi.row, lo.col, hi.col)
	if err != nil {
		return nil, fmt.Errorf("querying tiles: %w", err)
	}
	defer rows.Close()

	out := make(map[tileKey][]float32)
	for rows.Next() {
		var k tileKey
		var data []byte
		if err := rows.Scan(&k.row, &k.col, &data); err != nil {
			return nil, fmt.Errorf("scanning tile: %w", err)
		}
		out[k] = bytesToFloat32Slice(data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tiles: %w", err)
	}
	return out, nil
}

// Close closes the underlying store when the layer was opened from a path.
func (l *RasterLayer) Close() error {
	if l.owned {
		return l.store.Close()
	}
	return nil
}

// errNoTiles is returned by Grid when a raster has lost its tiles.
var errNoTiles = errors.New("raster has no tiles")

// Grid reads the whole raster back as a grid.
func (l *RasterLayer) Grid(ctx context.Context) (domain.Grid, error) {
	ts := l.info.TileSize
	tiles, err := l.tiles(ctx, tileKey{0, 0}, tileKey{(l.info.Height - 1) / ts, (l.info.Width - 1) / ts})
	if err != nil {
		return domain.Grid{}, err
	}
	if len(tiles) == 0 {
		return domain.Grid{}, fmt.Errorf("raster %q: %w", l.info.Name, errNoTiles)
	}
	g := domain.NewGrid(l.info.Width, l.info.Height, l.info.Bound, l.info.NoData)
	g.Provenance = l.info.Provenance
	g.Acquired = l.info.Acquired
	for row := 0; row < l.info.Height; row++ {
		for col := 0; col < l.info.Width; col++ {
			tile, ok := tiles[tileKey{row / ts, col / ts}]
			if !ok {
				continue
			}
			g.Values[row*l.info.Width+col] = float64(tile[(row%ts)*ts+col%ts])
		}
	}
	return g, nil
}
