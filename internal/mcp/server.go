package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set at build time.
var Version = "dev"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config) *Server {
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfig().ConfigPath
	}
	return &Server{svc: svc, config: cfg}
}

// Run starts the MCP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{Name: "coverkit", Version: Version}, nil)
	s.registerTools(server)
	s.registerResources(server)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "coverage_run",
		Description: "Run the project's tests with coverage collection, write the configured reports and evaluate thresholds.",
	}, s.handleRun)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "coverage_merge",
		Description: "Merge coverage blobs written by earlier runs into a single report and evaluate thresholds against the merged totals.",
	}, s.handleMerge)
}

func (s *Server) registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "coverkit://config",
		Name:        "Resolved Configuration",
		Description: "Fully-defaulted coverage options after config file and environment layering",
		MIMEType:    "application/json",
	}, s.handleConfigResource)

	server.AddResource(&mcp.Resource{
		URI:         "coverkit://providers",
		Name:        "Coverage Providers",
		Description: "Names of the registered coverage providers",
		MIMEType:    "application/json",
	}, s.handleProvidersResource)
}
