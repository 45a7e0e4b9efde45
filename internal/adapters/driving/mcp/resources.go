package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/thalweg-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for thalweg resources.
	uriScheme = "thalweg://"

	// recentRuns is the number of runs listed by the runs resource.
	recentRuns = 20
)

// settingsInfo is the JSON form of the search defaults.
type settingsInfo struct {
	Grow         float64 `json:"grow"`
	Distance     float64 `json:"distance"`
	Multiplier   float64 `json:"multiplier"`
	Separation   float64 `json:"separation"`
	CellSize     float64 `json:"cell_size"`
	ElevationKey string  `json:"elevation_key"`
}

// runInfo is the JSON form of a ledger entry.
type runInfo struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Inputs    []string  `json:"inputs"`
	Output    string    `json:"output"`
	Partial   string    `json:"partial,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Records   int       `json:"records"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Search defaults used when a tool call leaves a parameter unset",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)

	if s.ports.Runs != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "runs",
			Name:        "runs",
			Description: "Most recent upstream and zonal runs",
			MIMEType:    "application/json",
		}, s.handleRunsResource)
	}
}

// handleSettingsResource returns the current search defaults.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	opts, err := s.options()
	if err != nil {
		return nil, err
	}

	return jsonResource(req.Params.URI, settingsInfo{
		Grow:         opts.Grow,
		Distance:     opts.Distance,
		Multiplier:   opts.Multiplier,
		Separation:   opts.Separation,
		CellSize:     opts.CellSize,
		ElevationKey: opts.ElevationKey,
	})
}

// handleRunsResource returns the most recent runs, newest first.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Runs.Recent(ctx, recentRuns)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	infos := make([]runInfo, len(runs))
	for i, r := range runs {
		infos[i] = toRunInfo(r)
	}
	return jsonResource(req.Params.URI, infos)
}

func toRunInfo(r domain.Run) runInfo {
	inputs := r.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	return runInfo{
		ID:        r.ID,
		Command:   r.Command,
		Inputs:    inputs,
		Output:    r.Output,
		Partial:   r.Partial,
		StartedAt: r.StartedAt,
		Status:    string(r.Status),
		Error:     r.Error,
		Records:   r.Records,
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
