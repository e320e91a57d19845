package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/mcp/tools"
)

// AddTool registers a tool with the server after checking that the zero
// value of Out passes the output schema the SDK infers. Nil slices without
// omitzero and json.RawMessage fields panic here instead of failing every
// call at runtime.
//
// Use this instead of [sdkmcp.AddTool] to get the additional check.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
