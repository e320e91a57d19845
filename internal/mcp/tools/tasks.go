package tools

import (
	"context"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/reqmin/internal/pipeline"
	"github.com/usestring/reqmin/internal/tasks"
)

// TaskOutput reports a minimization task. Result is set once the task is
// finished, including the partial result of a cancelled run.
type TaskOutput struct {
	TaskID       string            `json:"task_id"`
	ViewID       string            `json:"view_id"`
	State        string            `json:"state"`
	Progress     pipeline.Progress `json:"progress"`
	OutputViewID string            `json:"output_view_id,omitempty"`
	Error        string            `json:"error,omitempty"`
	Result       *RunOutput        `json:"result,omitempty"`
	TaskURI      string            `json:"task_uri"`
	CreatedAt    string            `json:"created_at"`
	FinishedAt   string            `json:"finished_at,omitempty"`
}

// DescribeTask reports the current state of a task.
func DescribeTask(d *Deps, task *tasks.Task) TaskOutput {
	snap := task.Snapshot()
	out := TaskOutput{
		TaskID:    snap.ID,
		ViewID:    snap.Name,
		State:     string(snap.State),
		Progress:  snap.Progress,
		TaskURI:   TaskURI(snap.ID),
		CreatedAt: snap.CreatedAt.Format(time.RFC3339),
	}
	if !snap.State.Finished() {
		return out
	}

	out.FinishedAt = snap.FinishedAt.Format(time.RFC3339)
	out.OutputViewID, _ = d.OutputView(snap.ID)
	res, err := task.Wait(context.Background())
	out.Result = toRunOutput(res)
	if coded := WrapRunError(err); coded != nil {
		out.Error = coded.Error()
	}
	return out
}

// TaskIDInput identifies a task.
type TaskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required,Task ID returned by reqmin_minimize"`
}

// ToolTaskStatus reports the state of a minimization task.
func ToolTaskStatus(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input TaskIDInput) (*sdkmcp.CallToolResult, TaskOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input TaskIDInput) (*sdkmcp.CallToolResult, TaskOutput, error) {
		if input.TaskID == "" {
			return nil, TaskOutput{}, ErrInvalidInput("task_id is required")
		}
		task, ok := d.Tasks.Get(input.TaskID)
		if !ok {
			return nil, TaskOutput{}, ErrNotFound("task", input.TaskID)
		}
		return nil, DescribeTask(d, task), nil
	}
}

// ToolTaskCancel cancels a queued or running task and waits for it to stop.
// The accepted requests so far are kept.
func ToolTaskCancel(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input TaskIDInput) (*sdkmcp.CallToolResult, TaskOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input TaskIDInput) (*sdkmcp.CallToolResult, TaskOutput, error) {
		if input.TaskID == "" {
			return nil, TaskOutput{}, ErrInvalidInput("task_id is required")
		}
		task, ok := d.Tasks.Get(input.TaskID)
		if !ok {
			return nil, TaskOutput{}, ErrNotFound("task", input.TaskID)
		}
		task.Cancel()
		_, _ = task.Wait(ctx)
		return nil, DescribeTask(d, task), nil
	}
}
