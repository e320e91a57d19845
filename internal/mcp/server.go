// Package mcp exposes the minimizer as an MCP server on stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/mcp/prompts"
	"github.com/usestring/reqmin/internal/mcp/tools"
	"github.com/usestring/reqmin/internal/views"
)

// shutdownTimeout bounds how long Run waits for cancelled tasks to stop.
const shutdownTimeout = 5 * time.Second

// Server wraps the MCP server with reqmin-specific components.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	// Extension toggles
	enableBuiltinTools   bool
	enableBuiltinPrompts bool

	// Custom extension registration callbacks
	customRegistrations []func(*sdkmcp.Server)
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin reqmin tools and resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.enableBuiltinTools = true
	}
}

// WithBuiltinPrompts enables the builtin reqmin prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) {
		s.enableBuiltinPrompts = true
	}
}

// WithCustomRegistration adds a custom registration callback.
// The callback receives the underlying MCP server and can register
// tools, prompts, or resources directly.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.customRegistrations = append(s.customRegistrations, fn)
	}
}

// NewServer creates a new MCP server with the provided dependencies and options.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, fmt.Errorf("deps is required")
	}
	if deps.Views == nil || deps.Tasks == nil || deps.Minimizer == nil || deps.Config == nil {
		return nil, fmt.Errorf("deps: config, views, tasks, and minimizer are required")
	}

	s := &Server{deps: deps}

	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "reqmin-mcp",
			Version: "1.0.0",
		},
		&sdkmcp.ServerOptions{
			SubscribeHandler:   func(context.Context, *sdkmcp.SubscribeRequest) error { return nil },
			UnsubscribeHandler: func(context.Context, *sdkmcp.UnsubscribeRequest) error { return nil },
		},
	)

	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	// Subscribers of a view resource follow in-place minimizations.
	deps.Views.OnChange(func(v views.View) {
		err := s.mcpServer.ResourceUpdated(context.Background(), &sdkmcp.ResourceUpdatedNotificationParams{
			URI: tools.ViewURI(v.ID),
		})
		if err != nil {
			slog.Debug("resource update notification failed", "view_id", v.ID, "error", err)
		}
	})

	if s.enableBuiltinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.enableBuiltinPrompts {
		prompts.Register(s.mcpServer, &prompts.Config{
			ImportEnabled: deps.Importer != nil,
			JSONIndent:    deps.Config.JSONIndent,
		})
	}

	for _, fn := range s.customRegistrations {
		fn(s.mcpServer)
	}

	return s, nil
}

// Run starts the MCP server with stdio transport. Running minimizations are
// cancelled when it returns.
func (s *Server) Run(ctx context.Context) error {
	err := s.mcpServer.Run(ctx, &sdkmcp.StdioTransport{})

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if serr := s.deps.Tasks.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}

// Views returns the view store shared by the tools.
func (s *Server) Views() *views.Store {
	return s.deps.Views
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
