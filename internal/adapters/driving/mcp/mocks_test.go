package mcp

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
)

// mockProfileService is a mock implementation of driving.ProfileService.
type mockProfileService struct {
	records []domain.Record
	err     error

	confinement orb.MultiPolygon
	line        orb.LineString
	opts        domain.SearchOptions
}

func (m *mockProfileService) Profile(
	_ context.Context,
	confinement orb.MultiPolygon,
	line orb.LineString,
	_ driven.RasterStore,
	opts domain.SearchOptions,
) ([]domain.Record, error) {
	m.confinement = confinement
	m.line = line
	m.opts = opts
	return m.records, m.err
}

// mockZonalService is a mock implementation of driving.ZonalService.
type mockZonalService struct {
	values   map[string]float64
	err      error
	cellSize float64
}

func (m *mockZonalService) Run(_ context.Context, _ driving.ZonalRequest) (*driving.ZonalSummary, error) {
	return nil, m.err
}

func (m *mockZonalService) Compute(
	_ context.Context,
	_ domain.Feature,
	_ driven.RasterStore,
	_ []domain.Statistic,
	cellSize float64,
) (map[string]float64, error) {
	m.cellSize = cellSize
	return m.values, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	opts domain.SearchOptions
	err  error
}

func (m *mockSettingsService) Get() (*domain.SearchOptions, error) {
	if m.err != nil {
		return nil, m.err
	}
	opts := m.opts
	return &opts, nil
}

func (m *mockSettingsService) Save(_ *domain.SearchOptions) error { return m.err }
func (m *mockSettingsService) Set(_, _ string) error { return m.err }
func (m *mockSettingsService) Keys() []string { return nil }
func (m *mockSettingsService) GetDefaults() domain.SearchOptions { return domain.DefaultSearchOptions() }

// mockRunHistory is a mock implementation of driving.RunHistoryService.
type mockRunHistory struct {
	runs  []domain.Run
	err   error
	limit int
}

func (m *mockRunHistory) Recent(_ context.Context, limit int) ([]domain.Run, error) {
	m.limit = limit
	return m.runs, m.err
}

// mockStore records whether it was closed.
type mockStore struct {
	closed bool
}

func (m *mockStore) Sample(_ context.Context, req domain.SampleRequest) (domain.Grid, error) {
	return domain.NewGrid(req.Width, req.Height, orb.Bound{}, -9999), nil
}

func (m *mockStore) Close() error {
	m.closed = true
	return nil
}

// opener returns a StoreOpener handing out store and recording the paths.
func opener(store *mockStore, paths *[]string) StoreOpener {
	return func(_ context.Context, p []string) (driven.RasterStore, error) {
		*paths = p
		return store, nil
	}
}
