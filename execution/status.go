package execution

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/petasbytes/go-threadexec/api"
)

// Transport is the subset of api.Client the package needs.
type Transport interface {
	Get(ctx context.Context, path string) (api.Response, error)
	Post(ctx context.Context, path string, body any) (api.Response, error)
}

var _ Transport = (*api.Client)(nil)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Result is the response payload of a completed execution.
type Result struct {
	ExecutionID string
	StopReason  anthropic.StopReason
	// Content is response.content verbatim; nil when absent.
	Content json.RawMessage
	// Data is the whole payload as returned by the service.
	Data json.RawMessage
}

// IsToolUse reports whether the execution stopped to request tool calls.
func (r *Result) IsToolUse() bool {
	return r.StopReason == anthropic.StopReasonToolUse
}

// ToolInvocation is one tool_use entry of a response.
type ToolInvocation struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolUses returns the tool_use entries of Content in response order.
func (r *Result) ToolUses() []ToolInvocation {
	var calls []ToolInvocation
	gjson.ParseBytes(r.Content).ForEach(func(_, entry gjson.Result) bool {
		if entry.Get("type").String() != "tool_use" {
			return true
		}
		input := json.RawMessage(`{}`)
		if in := entry.Get("input"); in.Exists() && in.Type != gjson.Null {
			input = json.RawMessage(in.Raw)
		}
		calls = append(calls, ToolInvocation{
			ID:    entry.Get("id").String(),
			Name:  entry.Get("name").String(),
			Input: input,
		})
		return true
	})
	return calls
}

func statusPath(id string) string   { return fmt.Sprintf("/threadexec/%s/status", id) }
func responsePath(id string) string { return fmt.Sprintf("/threadexec/%s/response", id) }

// GetStatus fetches the current status of an execution. Unrecognised values
// are returned as-is; deciding what to do with them is up to the caller.
func GetStatus(ctx context.Context, t Transport, id string) (Status, error) {
	resp, err := t.Get(ctx, statusPath(id))
	if err != nil {
		return "", fmt.Errorf("getting thread execution status: %w", err)
	}
	if !resp.OK() {
		return "", &StatusError{Op: "get thread execution status", Code: resp.Status, Body: resp.Data}
	}
	return Status(gjson.GetBytes(resp.Data, "status").String()), nil
}

// GetResponse fetches the response payload of an execution.
func GetResponse(ctx context.Context, t Transport, id string) (*Result, error) {
	resp, err := t.Get(ctx, responsePath(id))
	if err != nil {
		return nil, fmt.Errorf("getting thread execution response: %w", err)
	}
	if !resp.OK() {
		return nil, &StatusError{Op: "get thread execution response", Code: resp.Status, Body: resp.Data}
	}

	res := &Result{
		ExecutionID: id,
		StopReason:  anthropic.StopReason(gjson.GetBytes(resp.Data, "response.stop_reason").String()),
		Data:        resp.Data,
	}
	if content := gjson.GetBytes(resp.Data, "response.content"); content.Exists() {
		res.Content = json.RawMessage(content.Raw)
	}
	return res, nil
}
