package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

const pondGeoJSON = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "pond"},
   "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [4, 0], [4, 4], [0, 4], [0, 0]]]}}
]}`

func flatGrid(v string) string {
	row := strings.TrimSpace(strings.Repeat(v+" ", 10))
	return "ncols 10\nnrows 10\nxllcorner 0\nyllcorner 0\ncellsize 1\n" + strings.Repeat(row+"\n", 10)
}

func TestZonalCmd(t *testing.T) {
	useSettings(t)
	dir := t.TempDir()
	source := writeFile(t, dir, "ponds.geojson", pondGeoJSON)
	dem := writeFile(t, dir, "dem.asc", flatGrid("5"))
	target := filepath.Join(dir, "stats.geojson")

	out, err := execute(t, "", "zonal", "--cell-size", "1", source, dem, target, "mean", "n:count")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 of 1 features")

	features := readFeatures(t, target)
	require.Len(t, features, 1)
	name, _ := features[0].Attributes.Get("name")
	assert.Equal(t, "pond", name)
	mean, _ := features[0].Attributes.Get("mean")
	assert.EqualValues(t, 5, mean)
	n, _ := features[0].Attributes.Get("n")
	assert.EqualValues(t, 16, n)
}

func TestZonalCmd_Errors(t *testing.T) {
	useSettings(t)
	dir := t.TempDir()
	source := writeFile(t, dir, "ponds.geojson", pondGeoJSON)
	dem := writeFile(t, dir, "dem.asc", flatGrid("5"))
	target := filepath.Join(dir, "stats.geojson")

	_, err := execute(t, "", "zonal", source, dem, target)
	assert.Error(t, err, "needs a statistic")

	_, err = execute(t, "", "zonal", source, dem, target, "mode")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "", "zonal", source, dem, target, "name:mean")
	assert.ErrorIs(t, err, domain.ErrFieldCollision)

	_, err = execute(t, "", "zonal", filepath.Join(dir, "missing.geojson"), dem, target, "mean")
	assert.Error(t, err)
}
