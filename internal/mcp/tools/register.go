package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "reqmin_open_view",
		Description: "Open a view on a raw HTTP request, or on a request captured by powhttp (powhttp_entry_id). The target comes from url, from host/port/tls, or from the Host header. Returns view_id for reqmin_minimize.",
	}, ToolOpenView(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "reqmin_get_view",
		Description: "Get the current raw request and revision of a view. The revision grows with every live replace while an in-place minimization runs.",
	}, ToolGetView(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "reqmin_minimize",
		Description: "Minimize the request of a view against its live target: remove headers, then parameters, then shrink a JSON or XML body, keeping every response attribute that was stable across two baseline requests. Runs as a background task; set wait=true to block until done. replace=true rewrites the view as trials are accepted; otherwise the result opens a new view (output_view_id).",
	}, ToolMinimize(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "reqmin_task_status",
		Description: "Get state, progress, and (when finished) the result of a minimization task.",
	}, ToolTaskStatus(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "reqmin_task_cancel",
		Description: "Cancel a minimization task. Requests accepted before cancellation are kept.",
	}, ToolTaskCancel(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "reqmin_compare_responses",
		Description: "Compare two raw HTTP responses and list the attributes that are equal (invariant) and different (variant). Use it to pick markers and ignore_attributes before minimizing.",
	}, ToolCompareResponses(d))
}
