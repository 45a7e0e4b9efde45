// Package raster opens raster stores by file extension.
//
//   - .asc, .asc.gz: ESRI ASCII grid, loaded into memory
//   - .db, .sqlite: SQLite tiled raster layer, optionally "file.db#layer"
package raster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/raster/asciigrid"
	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

func isGrid(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".asc") || strings.HasSuffix(lower, ".asc.gz")
}

func isDatabase(path string) bool {
	file, _ := sqlite.SplitPath(path)
	lower := strings.ToLower(file)
	return strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite")
}

// Open opens the raster store at path.
func Open(ctx context.Context, path string) (driven.RasterStore, error) {
	switch {
	case isGrid(path):
		store, err := asciigrid.Open(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case isDatabase(path):
		layer, err := sqlite.OpenRasterLayer(ctx, path)
		if err != nil {
			return nil, err
		}
		return layer, nil
	default:
		return nil, fmt.Errorf("%w: raster file %s", domain.ErrUnsupportedType, path)
	}
}

// OpenAll opens every path. On failure the stores already opened are
// closed.
func OpenAll(ctx context.Context, paths []string) ([]driven.RasterStore, error) {
	stores := make([]driven.RasterStore, 0, len(paths))
	for _, p := range paths {
		s, err := Open(ctx, p)
		if err != nil {
			errs := []error{err}
			for _, opened := range stores {
				errs = append(errs, opened.Close())
			}
			return nil, errors.Join(errs...)
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// Load reads the whole raster at path into a grid.
func Load(ctx context.Context, path string) (domain.Grid, error) {
	switch {
	case isGrid(path):
		return asciigrid.Load(path)
	case isDatabase(path):
		layer, err := sqlite.OpenRasterLayer(ctx, path)
		if err != nil {
			return domain.Grid{}, err
		}
		defer layer.Close()
		return layer.Grid(ctx)
	default:
		return domain.Grid{}, fmt.Errorf("%w: raster file %s", domain.ErrUnsupportedType, path)
	}
}
