package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/capture"
	"github.com/usestring/reqmin/internal/config"
	"github.com/usestring/reqmin/internal/logging"
	"github.com/usestring/reqmin/internal/mcp"
	"github.com/usestring/reqmin/internal/mcp/tools"
	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/internal/tasks"
	"github.com/usestring/reqmin/internal/views"
	"github.com/usestring/reqmin/pkg/client"
)

// Server is the reqmin MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin reqmin tools.
//
// Configuration is read from the environment unless WithConfig is given.
// Use functional options to configure logging, add custom tools, etc.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		cfg.config = config.Load()
	}

	logCfg := logging.Config{
		Level:      cfg.config.LogLevel,
		FilePath:   cfg.config.LogFile,
		MaxSizeMB:  cfg.config.LogMaxSizeMB,
		MaxBackups: cfg.config.LogMaxBackups,
		MaxAgeDays: cfg.config.LogMaxAgeDays,
		Compress:   cfg.config.LogCompress,
	}
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	transport := cfg.transport
	if transport == nil {
		transport = client.New(cfg.config.ClientOptions()...)
	}
	minimizer, err := pipeline.New(transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create minimizer: %w", err)
	}

	taskManager, err := tasks.NewManager(cfg.config.MaxConcurrentRuns, cfg.config.TaskHistorySize,
		tasks.WithRunTimeout(cfg.config.RunTimeout),
		tasks.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task manager: %w", err)
	}

	var importer *capture.Importer
	if cfg.config.PowHTTPBaseURL != "" {
		apiOpts := []capture.Option{capture.WithBaseURL(cfg.config.PowHTTPBaseURL)}
		if cfg.httpClient != nil {
			apiOpts = append(apiOpts, capture.WithHTTPClient(cfg.httpClient))
		}
		importer, err = capture.NewImporter(capture.NewClient(apiOpts...), cfg.config.EntryCacheMaxItems)
		if err != nil {
			return nil, fmt.Errorf("failed to create entry importer: %w", err)
		}
	}

	toolDeps := &tools.Deps{
		Config:    cfg.config,
		Views:     views.NewStore(),
		Tasks:     taskManager,
		Minimizer: minimizer,
		Importer:  importer,
	}

	// Same values, public type for custom tools.
	deps := &Deps{
		Config:    toolDeps.Config,
		Views:     toolDeps.Views,
		Tasks:     toolDeps.Tasks,
		Minimizer: toolDeps.Minimizer,
		Importer:  toolDeps.Importer,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, fn := range cfg.registrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.depsRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled; running minimizations
// are cancelled when it stops.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server, for in-memory transports in
// tests.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
