// Package mcpsrv provides an extensible MCP server for HTTP request
// minimization.
//
// The server exposes the builtin reqmin tools (open a view, minimize it,
// follow the task, compare responses), the view and task resources, and a
// workflow prompt. Users can extend it with custom tools, prompts, and
// resources using functional options.
//
// # Basic Usage
//
// Create a server with configuration from the environment:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type ViewCountOutput struct {
//	    Count int `json:"count"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "view_count", Description: "Number of open views"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, ViewCountOutput, error) {
//	            return func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, ViewCountOutput, error) {
//	                return nil, ViewCountOutput{Count: len(d.Views.List())}, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Environment variables are read by default; options override them:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/reqmin-mcp.log"),
//	    mcpsrv.WithTransport(myTransport),
//	)
package mcpsrv
