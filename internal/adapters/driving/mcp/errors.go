// Package mcp provides an MCP (Model Context Protocol) server adapter for thalweg.
// It lets AI assistants resolve elevation profiles and zonal statistics
// against local raster stores.
package mcp

import "errors"

var (
	// ErrMissingProfileService is returned when the profile service is not provided.
	ErrMissingProfileService = errors.New("mcp: profile service is required")

	// ErrMissingStoreOpener is returned when no raster store opener is provided.
	ErrMissingStoreOpener = errors.New("mcp: store opener is required")
)
