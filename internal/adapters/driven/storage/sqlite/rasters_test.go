package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// rampGrid returns a w by h grid over [0,w]x[0,h] whose value is
// 10*row + col, counting rows from the north.
func rampGrid(w, h int) domain.Grid {
	g := domain.NewGrid(w, h, orb.Bound{Max: orb.Point{float64(w), float64(h)}}, -9999)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			g.Values[row*w+col] = float64(10*row + col)
		}
	}
	g.Provenance = "ramp"
	return g
}

func TestStore_ImportRasterRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	grid := rampGrid(5, 3)
	grid.Values[7] = grid.NoData
	require.NoError(t, store.ImportRaster(ctx, "dem", grid, 2))

	var tiles int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM raster_tiles WHERE raster = 'dem'").Scan(&tiles))
	assert.Equal(t, 6, tiles)

	layer, err := store.Raster(ctx, "dem")
	require.NoError(t, err)
	info := layer.Info()
	assert.Equal(t, 5, info.Width)
	assert.Equal(t, 3, info.Height)
	assert.Equal(t, 2, info.TileSize)
	assert.Equal(t, "ramp", info.Provenance)

	back, err := layer.Grid(ctx)
	require.NoError(t, err)
	assert.Equal(t, grid.Values, back.Values)
	assert.Equal(t, grid.Bound, back.Bound)
}

func TestStore_ImportRasterReplaces(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	require.NoError(t, store.ImportRaster(ctx, "dem", rampGrid(4, 4), 2))
	require.NoError(t, store.ImportRaster(ctx, "dem", rampGrid(1, 1), 0))

	infos, err := store.Rasters(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, DefaultTileSize, infos[0].TileSize)

	var tiles int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM raster_tiles").Scan(&tiles))
	assert.Equal(t, 1, tiles)
}

func TestStore_ImportRasterValidation(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	assert.ErrorIs(t, store.ImportRaster(ctx, "", rampGrid(2, 2), 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.ImportRaster(ctx, "empty", domain.Grid{}, 0), domain.ErrInvalidInput)
}

func TestRasterLayer_Sample(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.ImportRaster(ctx, "dem", rampGrid(6, 6), 4))
	layer, err := store.Raster(ctx, "dem")
	require.NoError(t, err)

	t.Run("aligned box", func(t *testing.T) {
		box := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}
		grid, err := layer.Sample(ctx, domain.SampleRequest{Region: box, Width: 2, Height: 2})
		require.NoError(t, err)
		// rows 3 and 4 from the north, columns 1 and 2
		assert.Equal(t, []float64{31, 32, 41, 42}, grid.Values)
		assert.Equal(t, box, grid.Bound)
	})

	t.Run("masked shape", func(t *testing.T) {
		shape := orb.Polygon{{{0, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 2}, {0, 2}, {0, 0}}}
		grid, err := layer.Sample(ctx, domain.SampleRequest{Region: shape, Width: 2, Height: 2})
		require.NoError(t, err)
		assert.Equal(t, []float64{40, -9999, 50, 51}, grid.Values)
	})

	t.Run("partly outside", func(t *testing.T) {
		box := orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{7, 7}}
		grid, err := layer.Sample(ctx, domain.SampleRequest{Region: box, Width: 2, Height: 2})
		require.NoError(t, err)
		assert.Equal(t, []float64{-9999, -9999, 5, -9999}, grid.Values)
	})

	t.Run("empty request", func(t *testing.T) {
		_, err := layer.Sample(ctx, domain.SampleRequest{Region: orb.Point{1, 1}})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestRasterLayer_SampleAtTime(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	grid := rampGrid(4, 4)
	grid.Acquired = time.Date(2021, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.ImportRaster(ctx, "lidar2021", grid, 0))
	require.NoError(t, store.ImportRaster(ctx, "undated", rampGrid(4, 4), 0))

	dated, err := store.Raster(ctx, "lidar2021")
	require.NoError(t, err)
	assert.True(t, grid.Acquired.Equal(dated.Info().Acquired))
	undated, err := store.Raster(ctx, "undated")
	require.NoError(t, err)
	assert.True(t, undated.Info().Acquired.IsZero())

	box := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}
	before := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := dated.Sample(ctx, domain.SampleRequest{Region: box, Width: 2, Height: 2, Time: &before})
	require.NoError(t, err)
	assert.Empty(t, got.ValidValues(), "surface did not exist yet")

	got, err = dated.Sample(ctx, domain.SampleRequest{Region: box, Width: 2, Height: 2, Time: &after})
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 21, 22}, got.Values)

	got, err = undated.Sample(ctx, domain.SampleRequest{Region: box, Width: 2, Height: 2, Time: &before})
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 21, 22}, got.Values)

	back, err := dated.Grid(ctx)
	require.NoError(t, err)
	assert.True(t, grid.Acquired.Equal(back.Acquired))
}

func TestOpenRasterLayer(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dem.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.ImportRaster(ctx, "lidar", rampGrid(2, 2), 0))
	require.NoError(t, store.Close())

	layer, err := OpenRasterLayer(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "lidar", layer.Info().Name)
	require.NoError(t, layer.Close())

	_, err = OpenRasterLayer(ctx, path+"#missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpenRasterLayer_NoRasters(t *testing.T) {
	_, err := OpenRasterLayer(context.Background(), filepath.Join(t.TempDir(), "empty.db"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
