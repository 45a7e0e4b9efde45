package mcp

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

var (
	square = map[string]any{
		"type":        "Polygon",
		"coordinates": []any{[]any{[]any{0, 0}, []any{10, 0}, []any{10, 10}, []any{0, 10}, []any{0, 0}}},
	}
	centerline = map[string]any{
		"type":        "LineString",
		"coordinates": []any{[]any{1, 5}, []any{9, 5}},
	}
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports, "test")
	require.NoError(t, err)
	return server
}

func TestServer_handleProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("returns records and closes the store", func(t *testing.T) {
		profile := &mockProfileService{records: []domain.Record{
			{Point: orb.Point{9, 5}, Elevation: 3},
			{Point: orb.Point{1, 5}, Elevation: 7},
		}}
		store := &mockStore{}
		var paths []string
		server := newTestServer(t, &Ports{Profile: profile, OpenStores: opener(store, &paths)})

		_, output, err := server.handleProfile(ctx, nil, ProfileInput{
			Polygon: square,
			Line:    centerline,
			Stores:  []string{"a.asc", "b.db#dem"},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, RecordOutput{X: 9, Y: 5, Elevation: 3}, output.Records[0])
		assert.Equal(t, []string{"a.asc", "b.db#dem"}, paths)
		assert.True(t, store.closed)
		assert.Len(t, profile.confinement, 1)
		assert.Equal(t, orb.LineString{{1, 5}, {9, 5}}, profile.line)
		assert.Equal(t, domain.DefaultSearchOptions(), profile.opts)
	})

	t.Run("overrides settings with input", func(t *testing.T) {
		profile := &mockProfileService{}
		settings := &mockSettingsService{opts: domain.DefaultSearchOptions()}
		settings.opts.Distance = 30
		var paths []string
		server := newTestServer(t, &Ports{
			Profile:    profile,
			Settings:   settings,
			OpenStores: opener(&mockStore{}, &paths),
		})

		grow := 0.0
		_, _, err := server.handleProfile(ctx, nil, ProfileInput{
			Polygon: square,
			Line:    centerline,
			Stores:  []string{"a.asc"},
			Grow:    &grow,
		})

		require.NoError(t, err)
		assert.Equal(t, 0.0, profile.opts.Grow)
		assert.Equal(t, 30.0, profile.opts.Distance)
	})

	t.Run("no records is an empty result", func(t *testing.T) {
		var paths []string
		server := newTestServer(t, &Ports{
			Profile:    &mockProfileService{err: domain.ErrNoRecords},
			OpenStores: opener(&mockStore{}, &paths),
		})

		_, output, err := server.handleProfile(ctx, nil, ProfileInput{
			Polygon: square, Line: centerline, Stores: []string{"a.asc"},
		})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Records)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		var paths []string
		server := newTestServer(t, &Ports{
			Profile:    &mockProfileService{},
			OpenStores: opener(&mockStore{}, &paths),
		})

		tests := []struct {
			name  string
			input ProfileInput
			want  error
		}{
			{"missing polygon", ProfileInput{Line: centerline, Stores: []string{"a"}}, domain.ErrInvalidInput},
			{"line as polygon", ProfileInput{Polygon: centerline, Line: centerline, Stores: []string{"a"}}, domain.ErrUnsupportedType},
			{"polygon as line", ProfileInput{Polygon: square, Line: square, Stores: []string{"a"}}, domain.ErrUnsupportedType},
			{"unknown type", ProfileInput{Polygon: map[string]any{"type": "Circle"}, Line: centerline, Stores: []string{"a"}}, domain.ErrInvalidInput},
			{"no stores", ProfileInput{Polygon: square, Line: centerline}, domain.ErrInvalidInput},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := server.handleProfile(ctx, nil, tt.input)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("returns error on profile failure", func(t *testing.T) {
		var paths []string
		server := newTestServer(t, &Ports{
			Profile:    &mockProfileService{err: errors.New("sample failed")},
			OpenStores: opener(&mockStore{}, &paths),
		})

		_, _, err := server.handleProfile(ctx, nil, ProfileInput{
			Polygon: square, Line: centerline, Stores: []string{"a.asc"},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "sample failed")
	})
}

func TestServer_handleZonal(t *testing.T) {
	ctx := context.Background()
	var paths []string
	zonal := &mockZonalService{values: map[string]float64{"mean": 2.5, "low": math.NaN()}}
	store := &mockStore{}
	server := newTestServer(t, &Ports{
		Profile:    &mockProfileService{},
		Zonal:      zonal,
		OpenStores: opener(store, &paths),
	})

	_, output, err := server.handleZonal(ctx, nil, ZonalInput{
		Geometry:   map[string]any{"type": "Feature", "geometry": square},
		Stores:     []string{"dem.asc"},
		Statistics: []string{"mean", "low:p10"},
	})

	require.NoError(t, err)
	require.Contains(t, output.Values, "mean")
	assert.Equal(t, 2.5, *output.Values["mean"])
	assert.Nil(t, output.Values["low"])
	assert.Equal(t, domain.DefaultCellSize, zonal.cellSize)
	assert.True(t, store.closed)

	_, _, err = server.handleZonal(ctx, nil, ZonalInput{
		Geometry: square, Stores: []string{"dem.asc"}, Statistics: []string{"bogus"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseGeometry(t *testing.T) {
	g, err := parseGeometry(square)
	require.NoError(t, err)
	assert.IsType(t, orb.Polygon{}, g)

	_, err = parseGeometry(map[string]any{"type": "Feature"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = parseGeometry(map[string]any{"type": "GeometryCollection", "geometries": []any{}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
