package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleMinimizeRequest implements the minimization workflow.
func HandleMinimizeRequest(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var goal, entryID string
		if args := req.Params.Arguments; args != nil {
			goal = args["goal"]
			entryID = args["entry_id"]
		}

		var sb strings.Builder

		sb.WriteString("# Minimize an HTTP Request\n\n")
		sb.WriteString("You are reducing an HTTP request to the smallest request that the target still answers the same way. ")
		sb.WriteString("Every trial is a real request to the target, so only minimize against systems you are allowed to test.\n\n")
		if goal != "" {
			sb.WriteString(fmt.Sprintf("**Goal**: the response must still %s.\n\n", goal))
		}

		sb.WriteString("## How Equivalence Works\n\n")
		sb.WriteString("- The unmodified request is sent twice. Response attributes equal in both (status code, headers, body hashes, page title, ...) become the invariants\n")
		sb.WriteString("- A smaller request is accepted only if its response reproduces every invariant\n")
		sb.WriteString("- Attributes that change between identical requests (timestamps, nonces) drop out by themselves; `ignore_attributes` removes more\n")
		sb.WriteString("- `markers` add attributes taken from the body, so a trial must keep e.g. a JSON field or a CSS element that the whole-body hash would not pin down\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Open a view**\n")
		switch {
		case entryID != "" && cfg.ImportEnabled:
			sb.WriteString(fmt.Sprintf("   - `reqmin_open_view(powhttp_entry_id=\"%s\")`\n", entryID))
		case cfg.ImportEnabled:
			sb.WriteString("   - Paste: `reqmin_open_view(raw_request=\"...\", url=\"https://host\")`\n")
			sb.WriteString("   - Or import a captured request: `reqmin_open_view(powhttp_entry_id=\"...\")`\n")
		default:
			sb.WriteString("   - `reqmin_open_view(raw_request=\"...\", url=\"https://host\")`; without url the Host header is used\n")
		}
		sb.WriteString("2. **Check stability (optional)** - if the page embeds volatile content, send it twice yourself and run\n")
		sb.WriteString("   `reqmin_compare_responses(response_a, response_b)` to see which attributes are variant\n")
		sb.WriteString("3. **Pick markers** for what the goal needs:\n")
		sb.WriteString("   - **JSON**: jq, e.g. `{name: \"user\", mode: \"jq\", expression: \".user.id\"}`\n")
		sb.WriteString("   - **HTML**: CSS, e.g. `{name: \"title\", mode: \"css\", expression: \"h1.account-name\"}`\n")
		sb.WriteString("   - **XML**: XPath, e.g. `//order/status`\n")
		sb.WriteString("   - **Text**: regex, e.g. `Welcome, (\\w+)`\n")
		sb.WriteString("4. **Minimize**: `reqmin_minimize(view_id, markers=[...], wait=true)`\n")
		sb.WriteString("   - `replace=true` rewrites the view after every accepted trial (watch `reqmin://view/{id}`)\n")
		sb.WriteString("   - `replace=false` (default) opens a new view labeled \"minimized\" with the result (`output_view_id`)\n")
		sb.WriteString("   - `body_schema` constrains JSON bodies: candidates that fail it are never sent\n")
		sb.WriteString("5. **Long runs**: omit `wait`, poll `reqmin_task_status(task_id)`, stop with `reqmin_task_cancel(task_id)`. Cancelling keeps every accepted reduction\n\n")

		sb.WriteString("## Reading the Result\n\n")
		sb.WriteString("- `removed_headers`, `removed_params`: what the target ignores\n")
		sb.WriteString("- `body_format` + `body_schema`: the reduced JSON or XML body; every key in the schema is required\n")
		sb.WriteString(fmt.Sprintf("- JSON bodies are re-serialized with an indent of %d; compare values, not formatting\n", cfg.JSONIndent))
		sb.WriteString("- `body_skipped`: the body was not reduced and why (not JSON/XML, or unparsable)\n")
		sb.WriteString("- `transport_errors` > 0: some trials failed to connect and counted as not equivalent; re-run if the count is high\n")
		sb.WriteString("- `invariants` empty: the target answers differently every time; add `ignore_attributes` or markers and re-run\n\n")

		sb.WriteString("## Expected Output Format\n\n")
		sb.WriteString("Report:\n")
		sb.WriteString("1. The minimized request in a code block\n")
		sb.WriteString("2. Which headers, parameters, and body fields turned out to be required\n")
		sb.WriteString("3. Anything surprising (e.g. a tracking cookie that is actually required)\n")

		return &sdkmcp.GetPromptResult{
			Description: "Request minimization workflow",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
