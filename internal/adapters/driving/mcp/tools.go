package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driven"
)

// ProfileInput is the input schema for the upstream_profile tool.
type ProfileInput struct {
	Polygon    map[string]any `json:"polygon" jsonschema:"confinement polygon or multipolygon as a GeoJSON geometry"`
	Line       map[string]any `json:"line" jsonschema:"centerline as a GeoJSON LineString"`
	Stores     []string       `json:"stores" jsonschema:"raster store paths; several stores are fused by their minimum"`
	Grow       *float64       `json:"grow,omitempty" jsonschema:"buffer applied to the polygon"`
	Distance   *float64       `json:"distance,omitempty" jsonschema:"minimum search radius"`
	Multiplier *float64       `json:"multiplier,omitempty" jsonschema:"scale from boundary distance to search radius"`
	Separation *float64       `json:"separation,omitempty" jsonschema:"maximum spacing between sample points"`
}

// ProfileOutput is the output schema for the upstream_profile tool.
type ProfileOutput struct {
	Records []RecordOutput `json:"records"`
	Count   int            `json:"count"`
}

// RecordOutput is one resolved sample.
type RecordOutput struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Elevation float64 `json:"elevation"`
}

// ZonalInput is the input schema for the zonal_statistics tool.
type ZonalInput struct {
	Geometry   map[string]any `json:"geometry" jsonschema:"region as a GeoJSON geometry"`
	Stores     []string       `json:"stores" jsonschema:"raster store paths; several stores are fused by their minimum"`
	Statistics []string       `json:"statistics" jsonschema:"statistics such as mean or low:p10"`
	CellSize   *float64       `json:"cell_size,omitempty" jsonschema:"sampling resolution in map units"`
}

// ZonalOutput is the output schema for the zonal_statistics tool.
// Statistics without a valid cell are null.
type ZonalOutput struct {
	Values map[string]*float64 `json:"values"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "upstream_profile",
		Description: "Resolve the upstream elevation profile of a centerline inside a confinement polygon",
	}, s.handleProfile)

	if s.ports.Zonal != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "zonal_statistics",
			Description: "Compute raster statistics over a geometry",
		}, s.handleZonal)
	}
}

// handleProfile handles the upstream_profile tool invocation.
func (s *Server) handleProfile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProfileInput,
) (*mcp.CallToolResult, ProfileOutput, error) {
	polygon, err := parseGeometry(input.Polygon)
	if err != nil {
		return nil, ProfileOutput{}, fmt.Errorf("polygon: %w", err)
	}
	var confinement orb.MultiPolygon
	switch g := polygon.(type) {
	case orb.Polygon:
		confinement = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		confinement = g
	default:
		return nil, ProfileOutput{}, fmt.Errorf("%w: polygon must be a Polygon or MultiPolygon, got %s",
			domain.ErrUnsupportedType, polygon.GeoJSONType())
	}

	lineGeom, err := parseGeometry(input.Line)
	if err != nil {
		return nil, ProfileOutput{}, fmt.Errorf("line: %w", err)
	}
	line, ok := lineGeom.(orb.LineString)
	if !ok {
		return nil, ProfileOutput{}, fmt.Errorf("%w: line must be a LineString, got %s",
			domain.ErrUnsupportedType, lineGeom.GeoJSONType())
	}

	opts, err := s.options()
	if err != nil {
		return nil, ProfileOutput{}, err
	}
	override(&opts.Grow, input.Grow)
	override(&opts.Distance, input.Distance)
	override(&opts.Multiplier, input.Multiplier)
	override(&opts.Separation, input.Separation)

	store, err := s.openStores(ctx, input.Stores)
	if err != nil {
		return nil, ProfileOutput{}, err
	}
	defer store.Close()

	records, err := s.ports.Profile.Profile(ctx, confinement, line, store, opts)
	if err != nil && !errors.Is(err, domain.ErrNoRecords) {
		return nil, ProfileOutput{}, err
	}

	output := ProfileOutput{
		Records: make([]RecordOutput, len(records)),
		Count:   len(records),
	}
	for i, r := range records {
		output.Records[i] = RecordOutput{X: r.Point[0], Y: r.Point[1], Elevation: r.Elevation}
	}
	return nil, output, nil
}

// handleZonal handles the zonal_statistics tool invocation.
func (s *Server) handleZonal(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ZonalInput,
) (*mcp.CallToolResult, ZonalOutput, error) {
	g, err := parseGeometry(input.Geometry)
	if err != nil {
		return nil, ZonalOutput{}, fmt.Errorf("geometry: %w", err)
	}
	stats, err := domain.ParseStatistics(input.Statistics)
	if err != nil {
		return nil, ZonalOutput{}, err
	}

	opts, err := s.options()
	if err != nil {
		return nil, ZonalOutput{}, err
	}
	cellSize := opts.CellSize
	override(&cellSize, input.CellSize)

	store, err := s.openStores(ctx, input.Stores)
	if err != nil {
		return nil, ZonalOutput{}, err
	}
	defer store.Close()

	values, err := s.ports.Zonal.Compute(ctx, domain.Feature{ID: 1, Geometry: g}, store, stats, cellSize)
	if err != nil {
		return nil, ZonalOutput{}, err
	}

	output := ZonalOutput{Values: make(map[string]*float64, len(values))}
	for column, v := range values {
		if math.IsNaN(v) {
			output.Values[column] = nil
			continue
		}
		output.Values[column] = &v
	}
	return nil, output, nil
}

func (s *Server) options() (domain.SearchOptions, error) {
	if s.ports.Settings == nil {
		return domain.DefaultSearchOptions(), nil
	}
	opts, err := s.ports.Settings.Get()
	if err != nil {
		return domain.SearchOptions{}, fmt.Errorf("getting settings: %w", err)
	}
	return *opts, nil
}

func (s *Server) openStores(ctx context.Context, paths []string) (driven.RasterStore, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: at least one store is required", domain.ErrInvalidInput)
	}
	return s.ports.OpenStores(ctx, paths)
}

func override(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// parseGeometry decodes a GeoJSON geometry, or the geometry of a Feature.
func parseGeometry(v map[string]any) (orb.Geometry, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: geometry is required", domain.ErrInvalidInput)
	}
	if v["type"] == "Feature" {
		inner, ok := v["geometry"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: feature has no geometry", domain.ErrInvalidInput)
		}
		v = inner
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	var g geojson.Geometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if g.Coordinates == nil {
		return nil, fmt.Errorf("%w: unsupported geometry %q", domain.ErrUnsupportedType, g.Type)
	}
	return g.Geometry(), nil
}
