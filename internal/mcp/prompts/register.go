package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "minimize_request",
		Description: "RECOMMENDED: Reduce an HTTP request to the smallest form that still gets the same response. Walks through opening a view, choosing markers, running the minimizer, and reading the result.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "goal",
				Description: "What the response must keep doing (e.g., 'return the logged-in user's profile', 'still set the session cookie')",
				Required:    false,
			},
			{
				Name:        "entry_id",
				Description: "powhttp entry to start from instead of a pasted raw request",
				Required:    false,
			},
		},
	}, HandleMinimizeRequest(cfg))
}
