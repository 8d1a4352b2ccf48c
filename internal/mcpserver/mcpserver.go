// Package mcpserver exposes superclass-opportunity analysis to LLM clients
// over the Model Context Protocol.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/hoist/pkg/config"
)

// Server wraps the MCP server and registers the hoist tools.
type Server struct {
	server *mcp.Server
	tools  *tools
}

// Option configures a Server.
type Option func(*tools)

// WithConfig sets the base configuration each tool call starts from.
func WithConfig(cfg *config.Config) Option {
	return func(t *tools) {
		t.config = cfg
	}
}

// WithLogger sets the logger handed to the analysis service.
func WithLogger(logger *slog.Logger) Option {
	return func(t *tools) {
		t.logger = logger
	}
}

// NewServer creates a new MCP server with all hoist tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "hoist",
			Version: version,
		},
		nil,
	)

	t := &tools{
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}

	s := &Server{server: server, tools: t}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_superclass_opportunities",
		Description: describeSuperclassOpportunities(),
	}, s.tools.handleFindSuperclassOpportunities)
}
