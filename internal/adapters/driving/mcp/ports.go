package mcp

import (
	"context"

	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
)

// StoreOpener opens the raster stores at paths as a single store.
// The caller closes the returned store.
type StoreOpener func(ctx context.Context, paths []string) (driven.RasterStore, error)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Profile resolves single centerlines.
	Profile driving.ProfileService

	// Zonal computes raster statistics. Optional.
	Zonal driving.ZonalService

	// Settings supplies search defaults. Optional; built-in defaults are
	// used without it.
	Settings driving.SettingsService

	// Runs exposes the run ledger. Optional.
	Runs driving.RunHistoryService

	// OpenStores opens raster stores named in tool calls.
	OpenStores StoreOpener
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Profile == nil {
		return ErrMissingProfileService
	}
	if p.OpenStores == nil {
		return ErrMissingStoreOpener
	}
	return nil
}
