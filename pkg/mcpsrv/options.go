package mcpsrv

import (
	"context"
	"net/http"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/config"
	"github.com/usestring/reqmin/internal/pipeline"
)

// serverConfig holds configuration built from options.
type serverConfig struct {
	config     *config.Config
	transport  pipeline.Transport
	httpClient *http.Client

	// Logging overrides
	logLevel string
	logFile  string

	disableBuiltinTools   bool
	disableBuiltinPrompts bool

	// Registration callbacks keep the generic handler types intact.
	registrations []func(*mcp.Server)

	// Tool registrations that need Deps, run once Deps exist.
	depsRegistrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile sets the log file path.
// If empty, logs are written to stderr only.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithConfig replaces the configuration loaded from the environment.
// WithLogLevel and WithLogFile still override it.
func WithConfig(c *config.Config) Option {
	return func(cfg *serverConfig) {
		if c != nil {
			cfg.config = c
		}
	}
}

// WithTransport sets the transport trials are sent with. The default is a
// pkg/client Client built from the configuration.
func WithTransport(t pipeline.Transport) Option {
	return func(cfg *serverConfig) {
		cfg.transport = t
	}
}

// WithHTTPClient sets the HTTP client used to import captured requests from
// the powhttp API. Trials never go through it.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithoutBuiltinTools disables the builtin reqmin tools and resources.
// Use this if you want to register only your own tools.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithoutBuiltinPrompts disables the builtin reqmin prompt.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinPrompts = true
	}
}

// WithTool registers a custom tool with the server.
//
// The handler follows the MCP SDK pattern: In is unmarshaled from the call
// arguments and Out is marshaled as the structured result.
//
//	type EchoInput struct {
//	    Text string `json:"text"`
//	}
//
//	type EchoOutput struct {
//	    Text string `json:"text"`
//	}
//
//	func echo(ctx context.Context, req *mcp.CallToolRequest, in EchoInput) (*mcp.CallToolResult, EchoOutput, error) {
//	    return nil, EchoOutput{Text: in.Text}, nil
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "echo", Description: "Echo text"}, echo)
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a custom tool that has access to Deps.
// The builder receives Deps and returns the handler; see the package
// documentation for an example.
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.depsRegistrations = append(cfg.depsRegistrations, func(srv *mcp.Server, deps *Deps) {
			AddTool(srv, tool, builder(deps))
		})
	}
}

// WithPrompt registers a custom prompt with the server.
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a custom resource template with the server.
//
//	mcpsrv.WithResourceTemplate(
//	    &mcp.ResourceTemplate{URITemplate: "custom://{id}", Name: "Custom Resource"},
//	    func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
//	        return &mcp.ReadResourceResult{
//	            Contents: []*mcp.ResourceContents{
//	                {URI: req.Params.URI, MIMEType: "text/plain", Text: "value"},
//	            },
//	        }, nil
//	    },
//	)
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.registrations = append(cfg.registrations, func(srv *mcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
