package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

func gridOf(noData float64, values ...float64) domain.Grid {
	g := domain.NewGrid(len(values), 1, orb.Bound{}, noData)
	copy(g.Values, values)
	return g
}

func TestElevationSampler_SecondLowest(t *testing.T) {
	store := &mockRasterStore{grid: gridOf(-1, -1, 4, -1, 1)}
	sampler := NewElevationSampler(store, 0.5)

	z, err := sampler.ElevationAt(context.Background(), orb.Point{0, 0}, rect(0, 0, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 4.0, z)
}

func TestElevationSampler_SingleValidCellIsAbsent(t *testing.T) {
	store := &mockRasterStore{grid: gridOf(-1, -1, 7, -1)}
	sampler := NewElevationSampler(store, 0.5)

	_, err := sampler.ElevationAt(context.Background(), orb.Point{0, 0}, rect(0, 0, 1, 1))
	assert.ErrorIs(t, err, domain.ErrEmptyWindow)
}

func TestElevationSampler_NearestPartAndSize(t *testing.T) {
	store := &mockRasterStore{grid: gridOf(-1, 3, 3)}
	sampler := NewElevationSampler(store, 0.5)

	window := append(rect(0, 0, 1, 1), rect(10, 0, 12, 1)...)
	_, err := sampler.ElevationAt(context.Background(), orb.Point{9, 0.5}, window)
	require.NoError(t, err)

	require.Len(t, store.requests, 1)
	req := store.requests[0]
	assert.Equal(t, window[1], req.Region)
	assert.Equal(t, 4, req.Width)
	assert.Equal(t, 2, req.Height)
}

func TestElevationSampler_EmptyWindow(t *testing.T) {
	sampler := NewElevationSampler(&mockRasterStore{}, 0.5)

	_, err := sampler.ElevationAt(context.Background(), orb.Point{0, 0}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyWindow)
}

func TestElevationSampler_StoreError(t *testing.T) {
	sampler := NewElevationSampler(&mockRasterStore{err: errStoreDown}, 0.5)

	_, err := sampler.ElevationAt(context.Background(), orb.Point{0, 0}, rect(0, 0, 1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStoreDown))
	assert.False(t, domain.IsSkippable(err))
}

func TestElevationSampler_AsOfForwardsTime(t *testing.T) {
	store := &mockRasterStore{grid: gridOf(-1, 3, 3)}
	at := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)

	sampler := NewElevationSampler(store, 0.5).AsOf(at)
	_, err := sampler.ElevationAt(context.Background(), orb.Point{0, 0}, rect(0, 0, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, store.requests[0].Time)
	assert.True(t, at.Equal(*store.requests[0].Time))

	sampler.AsOf(time.Time{})
	_, err = sampler.ElevationAt(context.Background(), orb.Point{0, 0}, rect(0, 0, 1, 1))
	require.NoError(t, err)
	assert.Nil(t, store.requests[1].Time)
}
