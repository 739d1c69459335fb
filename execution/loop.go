package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petasbytes/go-threadexec/internal/metrics"
	"github.com/petasbytes/go-threadexec/internal/telemetry"
	"github.com/petasbytes/go-threadexec/tools"
)

// RunUntilComplete polls e and answers every tool_use response until the
// service stops for any other reason, then returns that final response.
//
// For each tool_use entry, in response order, the tool runs, and an assistant
// turn with the full response content plus a user tool_result turn are
// appended to e.Request.Messages. Once all entries of a response are applied
// the request is resubmitted and e.ID moves to the new execution.
//
// events may be nil. Sends never block; events that don't fit are dropped.
// Any error ends the loop and leaves e at the execution that produced it. A
// failing tool appends none of its response's turns.
func (r *Runner) RunUntilComplete(ctx context.Context, e *Execution, events chan<- Event) (*Result, error) {
	if e.Request.HumanInTheLoop && e.humanHandler == nil {
		return nil, ErrHumanHandlerRequired
	}
	if e.chainID != "" {
		ctx = telemetry.WithChainID(ctx, e.chainID)
	} else {
		ctx, e.chainID = telemetry.EnsureChainID(ctx)
	}

	ctx, span := r.tracer.Start(ctx, "Runner.RunUntilComplete", trace.WithAttributes(
		attribute.String("threadexec.chain_id", e.chainID),
	))
	defer span.End()

	start := time.Now()
	rounds := 0
	res, err := r.run(ctx, e, events, &rounds)

	fields := map[string]any{
		"chain_id":     e.chainID,
		"execution_id": e.ID,
		"rounds":       rounds,
		"messages":     len(e.Request.Messages),
		"duration_ms":  time.Since(start).Milliseconds(),
		"ok":           err == nil,
	}
	if res != nil {
		fields["stop_reason"] = string(res.StopReason)
	}
	telemetry.Emit("loop_finished", fields)
	span.SetAttributes(attribute.Int("threadexec.rounds", rounds))

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, e *Execution, events chan<- Event, rounds *int) (*Result, error) {
	for {
		res, err := r.Poll(ctx, e)
		if err != nil {
			return nil, err
		}
		if !res.IsToolUse() {
			return res, nil
		}

		calls := res.ToolUses()
		if len(calls) == 0 {
			return nil, fmt.Errorf("thread execution %s: %w", e.ID, ErrMissingToolUse)
		}

		turns := make([]Message, 0, 2*len(calls))
		for _, call := range calls {
			publish(events, Event{Type: EventToolUse, Content: ToolUseContent{
				ToolName:  call.Name,
				ToolInput: call.Input,
				ToolUseID: call.ID,
			}})

			out, err := r.callTool(ctx, e, call)
			if err != nil {
				return nil, &ToolError{Name: call.Name, ToolUseID: call.ID, Err: err}
			}

			publish(events, Event{Type: EventToolResult, Content: ToolResultContent{
				ToolUseID: call.ID,
				Result:    out,
			}})

			result, err := newToolResultMessage(call.ID, out)
			if err != nil {
				return nil, &ToolError{Name: call.Name, ToolUseID: call.ID, Err: err}
			}
			turns = append(turns, newAssistantMessage(res.Content), result)
		}
		e.Request.Messages = append(e.Request.Messages, turns...)

		id, err := r.submit(ctx, e.Request)
		if err != nil {
			return nil, fmt.Errorf("resubmitting after tool use: %w", err)
		}
		r.log.DebugContext(ctx, "resubmitted with tool results", "previous_execution_id", e.ID, "execution_id", id, "tool_calls", len(calls))
		e.ID = id
		*rounds++
	}
}

func (r *Runner) callTool(ctx context.Context, e *Execution, call ToolInvocation) (json.RawMessage, error) {
	ctx, span := r.tracer.Start(ctx, "Runner.callTool", trace.WithAttributes(
		attribute.String("threadexec.tool_name", call.Name),
		attribute.String("threadexec.tool_use_id", call.ID),
	))
	defer span.End()

	var handler tools.Handler
	if call.Name == tools.HumanInTheLoopName && e.humanHandler != nil {
		handler = e.humanHandler
	} else {
		t, err := r.tools.Lookup(call.Name)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		handler = t.Handler
	}
	if handler == nil {
		err := fmt.Errorf("%q has no handler: %w", call.Name, tools.ErrToolNotFound)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	out, err := handler.Call(ctx, call.Input)
	chainID, _ := telemetry.ChainIDFromContext(ctx)
	fields := map[string]any{
		"chain_id":    chainID,
		"tool_name":   call.Name,
		"tool_use_id": call.ID,
		"duration_ms": time.Since(start).Milliseconds(),
		"is_error":    err != nil,
		"input":       metrics.Measure(call.Input),
	}
	if err == nil {
		fields["result"] = metrics.Measure(out)
	}
	telemetry.Emit("tool_exec", fields)

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.log.ErrorContext(ctx, "tool failed", "tool_name", call.Name, "tool_use_id", call.ID, "error", err)
		return nil, err
	}
	if len(out) == 0 {
		out = json.RawMessage("null")
	}
	if !json.Valid(out) {
		err := errors.New("result is not valid JSON")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	r.log.InfoContext(ctx, "tool returned", "tool_name", call.Name, "tool_use_id", call.ID, "bytes", len(out))
	return out, nil
}
