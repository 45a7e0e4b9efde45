package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/thalweg-cli/internal/core/ports/driving"
	"github.com/custodia-labs/thalweg-cli/internal/core/services"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to serve over HTTP instead, for the MCP Inspector or remote
access.

Tools:
  upstream_profile  resolve one centerline inside one polygon
  zonal_statistics  raster statistics over one geometry

Examples:
  # Stdio mode (default, for Claude Desktop)
  thalweg mcp

  # HTTP mode
  thalweg mcp --http :8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpCmd.Flags().String("http", "", "HTTP listen address (empty = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	ledger, release := ledgerOrNil()
	defer release()

	var runs driving.RunHistoryService
	if ledger != nil {
		runs = services.NewRunHistoryService(ledger)
	}

	ports := &mcp.Ports{
		Profile:    services.NewUpstreamService(nil, nil),
		Zonal:      services.NewZonalService(nil, nil),
		Settings:   settingsService,
		Runs:       runs,
		OpenStores: openStores,
	}

	server, err := mcp.NewServer(ports, version)
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
