package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// Ensure MinimumStore implements the interface.
var _ driven.RasterStore = (*MinimumStore)(nil)

// MinimumStore fuses several raster stores by taking the per-cell minimum
// of their valid samples. A cell with no valid sample in any store gets the
// first store's no-data value.
type MinimumStore struct {
	stores []driven.RasterStore
}

// NewMinimumStore creates a fused store over stores.
// At least one store is required.
func NewMinimumStore(stores ...driven.RasterStore) (*MinimumStore, error) {
	if len(stores) == 0 {
		return nil, fmt.Errorf("%w: minimum store needs at least one raster store", domain.ErrInvalidInput)
	}
	return &MinimumStore{stores: stores}, nil
}

// Sample asks every store for the same grid and reduces them cell by cell.
func (m *MinimumStore) Sample(ctx context.Context, req domain.SampleRequest) (domain.Grid, error) {
	grids := make([]domain.Grid, len(m.stores))
	for i, store := range m.stores {
		g, err := store.Sample(ctx, req)
		if err != nil {
			return domain.Grid{}, fmt.Errorf("sample store %d of %d: %w", i+1, len(m.stores), err)
		}
		if g.Width != req.Width || g.Height != req.Height || len(g.Values) != req.Width*req.Height {
			return domain.Grid{}, fmt.Errorf("%w: store %d returned %dx%d, want %dx%d",
				domain.ErrShapeMismatch, i+1, g.Width, g.Height, req.Width, req.Height)
		}
		grids[i] = g
	}

	first := grids[0]
	out := domain.NewGrid(req.Width, req.Height, first.Bound, first.NoData)
	out.Provenance = fmt.Sprintf("minimum of %d grids", len(grids))
	for c := range out.Values {
		found := false
		for _, g := range grids {
			if !g.Valid(c) {
				continue
			}
			if !found || g.Values[c] < out.Values[c] {
				out.Values[c] = g.Values[c]
				found = true
			}
		}
	}
	return out, nil
}

// Close closes every constituent store and joins their errors.
func (m *MinimumStore) Close() error {
	var errs []error
	for _, store := range m.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
