package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/bodyschema"
	"github.com/usestring/reqmin/internal/markers"
	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/internal/tasks"
	"github.com/usestring/reqmin/internal/views"
)

// MinimizeInput is the input for reqmin_minimize.
type MinimizeInput struct {
	ViewID           string           `json:"view_id" jsonschema:"required,View to minimize"`
	Replace          bool             `json:"replace,omitempty" jsonschema:"Replace the view's request after every accepted trial; otherwise open a new view with the result"`
	Markers          []markers.Marker `json:"markers,omitempty" jsonschema:"Extra response attributes extracted from the body; each must stay stable"`
	IgnoreAttributes []string         `json:"ignore_attributes,omitempty" jsonschema:"Attributes never required to match (default from IGNORE_ATTRIBUTES)"`
	BodySchema       any              `json:"body_schema,omitempty" jsonschema:"JSON Schema every reduced JSON body must satisfy"`
	Wait             bool             `json:"wait,omitempty" jsonschema:"Block until the run finishes and return its result"`
}

// RunOutput is the tool-facing form of a finished run.
type RunOutput struct {
	Summary         string   `json:"summary"`
	Request         string   `json:"request"`
	BytesBefore     int      `json:"bytes_before"`
	BytesAfter      int      `json:"bytes_after"`
	Invariants      []string `json:"invariants,omitzero"`
	RemovedHeaders  []string `json:"removed_headers,omitzero"`
	RemovedParams   []string `json:"removed_params,omitzero"`
	BodyFormat      string   `json:"body_format,omitempty"`
	BodySkipped     string   `json:"body_skipped,omitempty"`
	BodySchema      any      `json:"body_schema,omitempty"`
	Trials          int      `json:"trials"`
	Accepted        int      `json:"accepted"`
	Rejected        int      `json:"rejected"`
	TransportErrors int      `json:"transport_errors"`
	DurationMs      int64    `json:"duration_ms"`
}

// TaskURI is the resource URI of a task.
func TaskURI(id string) string {
	return "reqmin://task/" + id
}

func toRunOutput(res *pipeline.Result) *RunOutput {
	if res == nil {
		return nil
	}
	out := &RunOutput{
		Summary:         res.Summary(),
		Invariants:      res.Invariants,
		RemovedHeaders:  res.RemovedHeaders,
		BodyFormat:      res.BodyFormat,
		BodySkipped:     res.BodySkipped,
		Trials:          res.Trials,
		Accepted:        res.Accepted,
		Rejected:        res.Rejected,
		TransportErrors: res.TransportErrors,
		DurationMs:      res.Duration.Milliseconds(),
	}
	if res.Original != nil {
		out.BytesBefore = len(res.Original.Bytes())
	}
	if res.Request != nil {
		out.Request = res.Request.String()
		out.BytesAfter = len(out.Request)
	}
	for _, p := range res.RemovedParams {
		out.RemovedParams = append(out.RemovedParams, p.String())
	}
	if res.BodySchema != nil {
		if v, err := toAny(res.BodySchema); err == nil {
			out.BodySchema = v
		}
	}
	return out
}

// ToolMinimize starts a minimization of a view as a background task.
func ToolMinimize(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input MinimizeInput) (*sdkmcp.CallToolResult, TaskOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input MinimizeInput) (*sdkmcp.CallToolResult, TaskOutput, error) {
		if input.ViewID == "" {
			return nil, TaskOutput{}, ErrInvalidInput("view_id is required")
		}
		view, err := d.Views.Get(input.ViewID)
		if err != nil {
			return nil, TaskOutput{}, ErrNotFound("view", input.ViewID)
		}

		opts, err := runOptions(d, input)
		if err != nil {
			return nil, TaskOutput{}, err
		}

		task := d.Tasks.Start(view.ID, minimizeRun(d, view, input.Replace, opts))

		if input.Wait {
			// The run outlives an abandoned wait; its state is reported as is.
			_, _ = task.Wait(ctx)
		}
		return nil, DescribeTask(d, task), nil
	}
}

// runOptions validates per-run input up front so a bad marker or schema is
// reported to the caller instead of failing the task.
func runOptions(d *Deps, input MinimizeInput) (pipeline.Options, error) {
	opts := d.Config.PipelineOptions()
	if input.IgnoreAttributes != nil {
		opts.IgnoreAttributes = input.IgnoreAttributes
	}

	if _, err := markers.CompileAll(input.Markers); err != nil {
		return opts, ErrInvalidInput(err.Error())
	}
	opts.Markers = input.Markers

	if input.BodySchema != nil {
		raw, err := json.Marshal(input.BodySchema)
		if err != nil {
			return opts, ErrInvalidInput(fmt.Sprintf("body_schema: %v", err))
		}
		if _, err := bodyschema.NewValidator(raw); err != nil {
			return opts, ErrInvalidInput(fmt.Sprintf("body_schema: %v", err))
		}
		opts.BodySchema = raw
	}
	return opts, nil
}

// minimizeRun binds a run to its view. With replace every accepted request
// is written back to the view; otherwise the final request opens a new view.
func minimizeRun(d *Deps, view views.View, replace bool, opts pipeline.Options) tasks.RunFunc {
	return func(ctx context.Context, progress func(pipeline.Progress)) (*pipeline.Result, error) {
		opts.OnProgress = progress
		taskID, _ := tasks.IDFromContext(ctx)
		opts.RunID = taskID

		if replace {
			opts.OnAccept = func(u pipeline.Update) {
				if _, err := d.Views.ReplaceLive(view.ID, u.Request); err != nil {
					slog.Warn("live replace failed", "view_id", view.ID, "task_id", taskID, "error", err)
				}
			}
		}

		res, err := d.Minimizer.Run(ctx, view.Target, view.Request, opts)
		if !replace && res != nil && res.Request != nil {
			out := d.Views.Open(view.Target, res.Request, views.DefaultLabel, "minimized from "+view.ID)
			d.setOutputView(taskID, out.ID)
		}
		return res, err
	}
}

