// Package vector opens feature sources and creates feature sinks by file
// extension.
//
//   - .geojson, .json: GeoJSON
//   - .shp: ESRI Shapefile
//   - .db, .sqlite, .gpkg: SQLite feature table, optionally "file.db#layer"
package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/vector/geojson"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/vector/shapefile"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// Format identifies a vector file format.
type Format string

// Supported formats.
const (
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shapefile"
	FormatSQLite    Format = "sqlite"
)

// Detect returns the format of path from its extension.
func Detect(path string) (Format, error) {
	file, _ := sqlite.SplitPath(path)
	switch strings.ToLower(filepath.Ext(file)) {
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	case ".shp":
		return FormatShapefile, nil
	case ".db", ".sqlite", ".gpkg":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: vector file %s", domain.ErrUnsupportedType, path)
	}
}

// Open opens the feature source at path.
func Open(ctx context.Context, path string) (driven.FeatureSource, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	var src driven.FeatureSource
	switch format {
	case FormatGeoJSON:
		src, err = geojson.Open(path)
	case FormatShapefile:
		src, err = shapefile.Open(path)
	default:
		src, err = sqlite.OpenFeatureLayer(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Create creates a feature sink at path whose schema is template followed
// by one real field per extra name.
func Create(ctx context.Context, path string, template []domain.Field, extra ...string) (driven.FeatureSink, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	var sink driven.FeatureSink
	switch format {
	case FormatGeoJSON:
		sink, err = geojson.Create(path, template, extra...)
	case FormatShapefile:
		sink, err = shapefile.Create(path, template, extra...)
	default:
		sink, err = sqlite.CreateFeatureLayer(ctx, path, template, extra...)
	}
	if err != nil {
		return nil, err
	}
	return sink, nil
}
