package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

// serverName identifies thalweg to MCP clients.
const serverName = "thalweg"

// instructions tells connected assistants how the tools fit together.
const instructions = `thalweg samples elevation along watercourse centerlines.

upstream_profile walks a centerline inside its confinement polygon and returns
one point per sample site with the lowest elevation found upstream of it. The
line is walked uphill whichever way it was digitised. Geometries are GeoJSON
in the same projected coordinates as the raster stores; stores are file paths
(.asc, .asc.gz, file.db#layer) fused cell by cell by minimum.

zonal_statistics summarises one raster store under a point, line or polygon.

Read thalweg://settings for the default search parameters and thalweg://runs
for recent command-line runs.`

// shutdownTimeout bounds how long RunHTTP waits for open requests.
const shutdownTimeout = 5 * time.Second

// Server exposes the upstream and zonal services over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a server reporting version to clients.
func NewServer(ports *Ports, version string) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if version == "" {
		version = "dev"
	}

	impl := &mcp.Implementation{
		Name:    serverName,
		Title:   "Thalweg upstream elevation search",
		Version: version,
	}
	opts := &mcp.ServerOptions{
		Instructions: instructions,
		HasTools:     true,
		HasResources: true,
		InitializedHandler: func(context.Context, *mcp.InitializedRequest) {
			logger.Debug("MCP client initialized")
		},
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, opts),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Info("MCP server on http://%s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
