package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/mcp/tools"
)

// Resource URI scheme: reqmin://
// Supported URIs:
//   reqmin://view/{id}
//   reqmin://task/{id}

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "reqmin://view/{id}",
		Name:        "Request View",
		Description: "Current raw request of a view, exactly as it is sent. Updated after every accepted trial of an in-place minimization; subscribe to follow it.",
		MIMEType:    tools.MimeHTTP,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"user", "assistant"},
			Priority: 0.8,
		},
	}, s.handleResourceView)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "reqmin://task/{id}",
		Name:        "Minimization Task",
		Description: "State, progress, and result of a minimization task. Same content as reqmin_task_status.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceTask)
}

func (s *Server) handleResourceView(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	v, err := s.deps.Views.Get(params["id"])
	if err != nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: tools.MimeHTTP,
				Text:     v.Request.String(),
			},
		},
	}, nil
}

func (s *Server) handleResourceTask(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	task, ok := s.deps.Tasks.Get(params["id"])
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	return toResourceResult(req.Params.URI, tools.DescribeTask(s.deps, task))
}

// parseResourceURI extracts parameters from a reqmin:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	path, ok := strings.CutPrefix(uri, "reqmin://")
	if !ok {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected reqmin://")
	}

	parts := strings.Split(path, "/")
	switch parts[0] {
	case "view", "task":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput(fmt.Sprintf("%s URI requires an ID", parts[0]))
		}
		return map[string]string{"type": parts[0], "id": parts[1]}, nil
	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
