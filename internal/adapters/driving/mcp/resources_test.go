package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSettingsResource(t *testing.T) {
	ctx := context.Background()
	var paths []string

	t.Run("defaults without settings service", func(t *testing.T) {
		server := newTestServer(t, &Ports{Profile: &mockProfileService{}, OpenStores: opener(&mockStore{}, &paths)})

		result, err := server.handleSettingsResource(ctx, makeReadResourceRequest("thalweg://settings"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got settingsInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, domain.DefaultDistance, got.Distance)
		assert.Equal(t, domain.DefaultElevationKey, got.ElevationKey)
	})

	t.Run("reads from settings service", func(t *testing.T) {
		settings := &mockSettingsService{opts: domain.DefaultSearchOptions()}
		settings.opts.ElevationKey = "z"
		server := newTestServer(t, &Ports{
			Profile:    &mockProfileService{},
			Settings:   settings,
			OpenStores: opener(&mockStore{}, &paths),
		})

		result, err := server.handleSettingsResource(ctx, makeReadResourceRequest("thalweg://settings"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"elevation_key": "z"`)
	})

	t.Run("returns settings error", func(t *testing.T) {
		server := newTestServer(t, &Ports{
			Profile:    &mockProfileService{},
			Settings:   &mockSettingsService{err: errors.New("broken config")},
			OpenStores: opener(&mockStore{}, &paths),
		})

		_, err := server.handleSettingsResource(ctx, makeReadResourceRequest("thalweg://settings"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken config")
	})
}

func TestServer_handleRunsResource(t *testing.T) {
	ctx := context.Background()
	var paths []string
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := &mockRunHistory{runs: []domain.Run{
		{ID: "r1", Command: "upstream", Output: "out.geojson", StartedAt: started, Status: domain.RunSucceeded, Records: 12},
	}}
	server := newTestServer(t, &Ports{
		Profile:    &mockProfileService{},
		Runs:       runs,
		OpenStores: opener(&mockStore{}, &paths),
	})

	result, err := server.handleRunsResource(ctx, makeReadResourceRequest("thalweg://runs"))
	require.NoError(t, err)
	assert.Equal(t, recentRuns, runs.limit)

	var got []runInfo
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "succeeded", got[0].Status)
	assert.Equal(t, []string{}, got[0].Inputs)
	assert.True(t, started.Equal(got[0].StartedAt))

	runs.err = errors.New("locked")
	_, err = server.handleRunsResource(ctx, makeReadResourceRequest("thalweg://runs"))
	assert.Error(t, err)
}
