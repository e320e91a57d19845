package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/views"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// OpenViewInput is the input for reqmin_open_view.
type OpenViewInput struct {
	RawRequest string `json:"raw_request,omitempty" jsonschema:"Raw HTTP/1.1 request: request line, headers, blank line, body"`
	URL        string `json:"url,omitempty" jsonschema:"Target base URL such as https://example.com:8443; path and query are ignored"`
	Host       string `json:"host,omitempty" jsonschema:"Target host when url is not given"`
	Port       int    `json:"port,omitempty" jsonschema:"Target port (default: 443 with tls, else 80)"`
	TLS        bool   `json:"tls,omitempty" jsonschema:"Use TLS when url is not given"`
	Label      string `json:"label,omitempty" jsonschema:"View label"`

	PowHTTPSessionID string `json:"powhttp_session_id,omitempty" jsonschema:"powhttp session to import from (default: active)"`
	PowHTTPEntryID   string `json:"powhttp_entry_id,omitempty" jsonschema:"Captured powhttp entry to import instead of raw_request"`
}

// ViewOutput describes a view.
type ViewOutput struct {
	ViewID   string         `json:"view_id"`
	Label    string         `json:"label"`
	Target   rawhttp.Target `json:"target"`
	Revision int            `json:"revision"`
	Source   string         `json:"source,omitempty"`
	Bytes    int            `json:"bytes"`
	Request  string         `json:"request"`
	URI      string         `json:"uri"`
}

// ViewURI is the resource URI of a view.
func ViewURI(id string) string {
	return "reqmin://view/" + id
}

func toViewOutput(v views.View) ViewOutput {
	raw := v.Request.String()
	return ViewOutput{
		ViewID:   v.ID,
		Label:    v.Label,
		Target:   v.Target,
		Revision: v.Revision,
		Source:   v.Source,
		Bytes:    len(raw),
		Request:  raw,
		URI:      ViewURI(v.ID),
	}
}

// ToolOpenView opens a view from a raw request or a captured powhttp entry.
func ToolOpenView(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input OpenViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input OpenViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		if input.PowHTTPEntryID != "" {
			if input.RawRequest != "" {
				return nil, ViewOutput{}, ErrInvalidInput("raw_request and powhttp_entry_id are mutually exclusive")
			}
			return importView(ctx, d, input)
		}
		if strings.TrimSpace(input.RawRequest) == "" {
			return nil, ViewOutput{}, ErrInvalidInput("raw_request or powhttp_entry_id is required")
		}

		r, err := rawhttp.Parse([]byte(input.RawRequest))
		if err != nil {
			return nil, ViewOutput{}, ErrInvalidInput(err.Error())
		}
		target, err := resolveTarget(input, r)
		if err != nil {
			return nil, ViewOutput{}, ErrInvalidInput(err.Error())
		}

		label := input.Label
		if label == "" {
			label = "request"
		}
		v := d.Views.Open(target, r, label, "raw")
		return nil, toViewOutput(v), nil
	}
}

func importView(ctx context.Context, d *Deps, input OpenViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	if d.Importer == nil {
		return nil, ViewOutput{}, ErrInvalidInput("powhttp import is not configured")
	}
	sessionID := input.PowHTTPSessionID
	if sessionID == "" {
		sessionID = "active"
	}

	imported, err := d.Importer.Import(ctx, sessionID, input.PowHTTPEntryID)
	if err != nil {
		return nil, ViewOutput{}, WrapPowHTTPError(err)
	}

	label := input.Label
	if label == "" {
		label = "entry " + imported.EntryID
	}
	source := fmt.Sprintf("powhttp:%s/%s", sessionID, imported.EntryID)
	v := d.Views.Open(imported.Target, imported.Request, label, source)
	return nil, toViewOutput(v), nil
}

// resolveTarget picks the target from url, then host, then the request's
// Host header.
func resolveTarget(input OpenViewInput, r *rawhttp.Request) (rawhttp.Target, error) {
	switch {
	case input.URL != "":
		return rawhttp.ParseTarget(input.URL)
	case input.Host != "":
		t := rawhttp.Target{Host: input.Host, Port: input.Port, TLS: input.TLS}
		if t.Port == 0 {
			t.Port = 80
			if t.TLS {
				t.Port = 443
			}
		}
		return t, t.Validate()
	default:
		return rawhttp.TargetFromHost(r, input.TLS)
	}
}

// GetViewInput is the input for reqmin_get_view.
type GetViewInput struct {
	ViewID string `json:"view_id" jsonschema:"required,View ID returned by reqmin_open_view or reqmin_task_status"`
}

// ToolGetView returns the current request of a view.
func ToolGetView(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GetViewInput) (*sdkmcp.CallToolResult, ViewOutput, error) {
		if input.ViewID == "" {
			return nil, ViewOutput{}, ErrInvalidInput("view_id is required")
		}
		v, err := d.Views.Get(input.ViewID)
		if err != nil {
			return nil, ViewOutput{}, ErrNotFound("view", input.ViewID)
		}
		return nil, toViewOutput(v), nil
	}
}
