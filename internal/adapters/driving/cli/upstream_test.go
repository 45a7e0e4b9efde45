package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/vector"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

const (
	channelGeoJSON = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "lake"},
   "geometry": {"type": "Polygon", "coordinates": [[[-10, -25], [110, -25], [110, 25], [-10, 25], [-10, -25]]]}}
]}`
	brookGeoJSON = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "brook"},
   "geometry": {"type": "LineString", "coordinates": [[0, 0], [100, 0]]}}
]}`
)

// rampGrid is an ASCII grid over [-20, 120] x [-30, 30] rising 0.1 per
// unit eastwards.
func rampGrid() string {
	var b strings.Builder
	b.WriteString("ncols 140\nnrows 60\nxllcorner -20\nyllcorner -30\ncellsize 1\n")
	for row := 0; row < 60; row++ {
		for col := 0; col < 140; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", 0.1*(float64(col)-20+0.5))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func readFeatures(t *testing.T, path string) []domain.Feature {
	t.Helper()
	ctx := context.Background()
	src, err := vector.Open(ctx, path)
	require.NoError(t, err)
	defer src.Close()

	var out []domain.Feature
	for f, err := range src.Features(ctx) {
		require.NoError(t, err)
		out = append(out, f)
	}
	return out
}

func TestUpstreamCmd(t *testing.T) {
	useSettings(t)
	dir := t.TempDir()
	polygons := writeFile(t, dir, "channel.geojson", channelGeoJSON)
	lines := writeFile(t, dir, "brook.geojson", brookGeoJSON)
	dem := writeFile(t, dir, "dem.asc", rampGrid())
	points := filepath.Join(dir, "points.geojson")

	out, err := execute(t, "", "upstream", "-s", "10", "-d", "5", polygons, lines, dem, dem, points)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 11 points from 1 lines in 1 polygons")
	assert.Contains(t, out, "Run: ")

	features := readFeatures(t, points)
	require.Len(t, features, 11)
	prev := -1e9
	for _, f := range features {
		name, _ := f.Attributes.Get("name")
		assert.Equal(t, "brook", name)
		v, ok := f.Attributes.Get("height")
		require.True(t, ok)
		height, ok := v.(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, height, prev)
		prev = height
	}

	out, err = execute(t, "", "runs", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "upstream")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "11 records")
	assert.Contains(t, out, points)
}

func TestUpstreamCmd_Errors(t *testing.T) {
	useSettings(t)
	dir := t.TempDir()
	polygons := writeFile(t, dir, "channel.geojson", channelGeoJSON)
	lines := writeFile(t, dir, "brook.geojson", brookGeoJSON)
	dem := writeFile(t, dir, "dem.asc", rampGrid())
	points := filepath.Join(dir, "points.geojson")

	_, err := execute(t, "", "upstream", polygons, lines, points)
	assert.Error(t, err, "needs at least one store")

	_, err = execute(t, "", "upstream", "-p", "3/2", polygons, lines, dem, points)
	assert.Error(t, err)

	_, err = execute(t, "", "upstream", "-s", "0", polygons, lines, dem, points)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "", "upstream", polygons, lines, filepath.Join(dir, "dem.tif"), points)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = execute(t, "", "upstream", polygons, lines, dem, filepath.Join(dir, "points.csv"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = execute(t, "", "upstream", "--key", "name", polygons, lines, dem, points)
	assert.ErrorIs(t, err, domain.ErrFieldCollision)

	_, err = execute(t, "", "upstream", "--at", "last spring", polygons, lines, dem, points)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpstreamCmd_AtSkipsLaterSurfaces(t *testing.T) {
	useSettings(t)
	dir := t.TempDir()
	polygons := writeFile(t, dir, "channel.geojson", channelGeoJSON)
	lines := writeFile(t, dir, "brook.geojson", brookGeoJSON)
	grid := writeFile(t, dir, "dem.asc", rampGrid())
	db := filepath.Join(dir, "lidar.db")
	points := filepath.Join(dir, "points.geojson")

	_, err := execute(t, "", "raster", "import", "--acquired", "2021-06-01", grid, db)
	require.NoError(t, err)

	out, err := execute(t, "", "upstream", "-s", "10", "-d", "5", "--at", "2021-07-01", polygons, lines, db, points)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 11 points")

	out, err = execute(t, "", "upstream", "-s", "10", "-d", "5", "--at", "2020-01-01", polygons, lines, db, points)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 0 points")
	assert.Contains(t, out, "1 lines produced no points")
}

func TestUpstreamOptions(t *testing.T) {
	useSettings(t)
	require.NoError(t, settingsService.Set("search.distance", "40"))
	require.NoError(t, settingsService.Set("search.grow", "2"))

	resetFlags(upstreamCmd)
	defer resetFlags(upstreamCmd)
	require.NoError(t, upstreamCmd.Flags().Set("grow", "0"))
	require.NoError(t, upstreamCmd.Flags().Set("key", "z"))
	require.NoError(t, upstreamCmd.Flags().Set("partial", "1/4"))

	opts, err := upstreamOptions(upstreamCmd)
	require.NoError(t, err)

	want := domain.DefaultSearchOptions()
	want.Distance = 40
	want.Grow = 0
	want.ElevationKey = "z"
	want.Partial = "1/4"
	assert.Equal(t, want, opts)

	require.NoError(t, upstreamCmd.Flags().Set("at", "2019-04-02"))
	opts, err = upstreamOptions(upstreamCmd)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 4, 2, 0, 0, 0, 0, time.UTC), opts.At)
}
