package services

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

func sampleRequest(w, h int) domain.SampleRequest {
	return domain.SampleRequest{
		Region: orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{float64(w), float64(h)}},
		Width:  w,
		Height: h,
	}
}

func TestNewMinimumStore_RequiresStores(t *testing.T) {
	_, err := NewMinimumStore()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMinimumStore_ConstantGridsGiveMinimum(t *testing.T) {
	fused, err := NewMinimumStore(constantStore(5, -9999), constantStore(3, -9999), constantStore(7, -9999))
	require.NoError(t, err)

	grid, err := fused.Sample(context.Background(), sampleRequest(4, 3))
	require.NoError(t, err)

	for i, v := range grid.Values {
		assert.Equal(t, 3.0, v, "cell %d", i)
	}
	assert.Equal(t, -9999.0, grid.NoData)
	assert.Equal(t, "minimum of 3 grids", grid.Provenance)
}

func TestMinimumStore_SingleStoreIsIdentity(t *testing.T) {
	plane := memory.NewSurfaceStore("plane", -1, memory.PlaneSurface(1, 2, 0))
	fused, err := NewMinimumStore(plane)
	require.NoError(t, err)

	req := sampleRequest(3, 2)
	want, err := plane.Sample(context.Background(), req)
	require.NoError(t, err)
	got, err := fused.Sample(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, want.Values, got.Values)
	assert.Equal(t, want.NoData, got.NoData)
}

func TestMinimumStore_MasksNoData(t *testing.T) {
	// left half valid at 1, right half no data
	left := memory.NewSurfaceStore("left", -9999, func(p orb.Point) (float64, bool) {
		return 1, p[0] < 2
	})
	// valid at 2 on the top row only
	top := memory.NewSurfaceStore("top", -1, func(p orb.Point) (float64, bool) {
		return 2, p[1] > 1
	})
	fused, err := NewMinimumStore(left, top)
	require.NoError(t, err)

	grid, err := fused.Sample(context.Background(), sampleRequest(4, 2))
	require.NoError(t, err)

	assert.Equal(t, []float64{
		1, 1, 2, 2,
		1, 1, -9999, -9999,
	}, grid.Values)
}

func TestMinimumStore_PropagatesErrors(t *testing.T) {
	failing := &mockRasterStore{err: errStoreDown}
	fused, err := NewMinimumStore(constantStore(1, -1), failing)
	require.NoError(t, err)

	_, err = fused.Sample(context.Background(), sampleRequest(2, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.Contains(t, err.Error(), "store 2 of 2")
}

func TestMinimumStore_ShapeMismatch(t *testing.T) {
	wrong := &mockRasterStore{grid: constantGrid(3, 3, 1, -1)}
	fused, err := NewMinimumStore(constantStore(1, -1), wrong)
	require.NoError(t, err)

	_, err = fused.Sample(context.Background(), sampleRequest(2, 2))
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestMinimumStore_SameRequestForEveryStore(t *testing.T) {
	a := &mockRasterStore{grid: constantGrid(2, 2, 4, -1)}
	b := &mockRasterStore{grid: constantGrid(2, 2, 6, -1)}
	fused, err := NewMinimumStore(a, b)
	require.NoError(t, err)

	req := sampleRequest(2, 2)
	_, err = fused.Sample(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, a.requests, 1)
	require.Len(t, b.requests, 1)
	assert.Equal(t, req, a.requests[0])
	assert.Equal(t, req, b.requests[0])
}

func TestMinimumStore_CloseJoinsErrors(t *testing.T) {
	a := &mockRasterStore{closeErr: errors.New("a failed")}
	b := &mockRasterStore{}
	fused, err := NewMinimumStore(a, b)
	require.NoError(t, err)

	err = fused.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
