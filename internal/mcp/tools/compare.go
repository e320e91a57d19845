package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/compare"
	"github.com/usestring/reqmin/internal/markers"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// CompareResponsesInput is the input for reqmin_compare_responses.
type CompareResponsesInput struct {
	ResponseA        string           `json:"response_a" jsonschema:"required,First raw HTTP response: status line, headers, blank line, body"`
	ResponseB        string           `json:"response_b" jsonschema:"required,Second raw HTTP response"`
	Markers          []markers.Marker `json:"markers,omitempty" jsonschema:"Extra attributes extracted from both bodies"`
	IgnoreAttributes []string         `json:"ignore_attributes,omitempty" jsonschema:"Attributes left out of both lists (default from IGNORE_ATTRIBUTES)"`
}

// CompareResponsesOutput is the output for reqmin_compare_responses.
type CompareResponsesOutput struct {
	Invariant      []string                  `json:"invariant,omitzero"`
	Variant        []string                  `json:"variant,omitzero"`
	HeadersMissing []string                  `json:"headers_missing,omitzero"`
	HeadersExtra   []string                  `json:"headers_extra,omitzero"`
	HeadersChanged []compare.HeaderValueDiff `json:"headers_changed,omitzero"`
	Ignored        []string                  `json:"ignored,omitzero"`
}

// ToolCompareResponses reports which attributes two responses share.
// Nothing is sent; the same fingerprint drives the minimizer's oracle.
func ToolCompareResponses(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompareResponsesInput) (*sdkmcp.CallToolResult, CompareResponsesOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CompareResponsesInput) (*sdkmcp.CallToolResult, CompareResponsesOutput, error) {
		a, err := rawhttp.ParseResponse([]byte(input.ResponseA))
		if err != nil {
			return nil, CompareResponsesOutput{}, ErrInvalidInput(fmt.Sprintf("response_a: %v", err))
		}
		b, err := rawhttp.ParseResponse([]byte(input.ResponseB))
		if err != nil {
			return nil, CompareResponsesOutput{}, ErrInvalidInput(fmt.Sprintf("response_b: %v", err))
		}

		compiled, err := markers.CompileAll(input.Markers)
		if err != nil {
			return nil, CompareResponsesOutput{}, ErrInvalidInput(err.Error())
		}

		ignore := input.IgnoreAttributes
		if ignore == nil {
			ignore = d.Config.IgnoreAttributes
		}

		c := compare.NewEngine(nil, compiled).Compare(a, b, ignore)
		return nil, CompareResponsesOutput{
			Invariant:      c.Invariant,
			Variant:        c.Variant,
			HeadersMissing: c.HeadersMissing,
			HeadersExtra:   c.HeadersExtra,
			HeadersChanged: c.HeadersChanged,
			Ignored:        ignore,
		}, nil
	}
}
