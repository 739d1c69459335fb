package execution

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petasbytes/go-threadexec/internal/telemetry"
)

// Poll waits for the tracked execution to finish and returns its response.
// in_progress is re-checked after the poll interval with no upper bound; only
// ctx can stop the wait. failed, an unknown status or a failing status query
// end the poll immediately.
func (r *Runner) Poll(ctx context.Context, e *Execution) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "Runner.Poll", trace.WithAttributes(
		attribute.String("threadexec.execution_id", e.ID),
	))
	defer span.End()

	res, polls, err := r.poll(ctx, e.ID)
	span.SetAttributes(attribute.Int("threadexec.polls", polls))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (r *Runner) poll(ctx context.Context, id string) (*Result, int, error) {
	chainID, _ := telemetry.ChainIDFromContext(ctx)
	for polls := 1; ; polls++ {
		status, err := GetStatus(ctx, r.client, id)
		if err != nil {
			return nil, polls, fmt.Errorf("polling thread execution %s: %w", id, err)
		}
		telemetry.Emit("execution_polled", map[string]any{
			"chain_id":     chainID,
			"execution_id": id,
			"status":       string(status),
			"poll":         polls,
		})

		switch status {
		case StatusCompleted:
			res, err := GetResponse(ctx, r.client, id)
			if err != nil {
				return nil, polls, fmt.Errorf("polling thread execution %s: %w", id, err)
			}
			return res, polls, nil
		case StatusFailed:
			return nil, polls, fmt.Errorf("thread execution %s: %w", id, ErrExecutionFailed)
		case StatusInProgress:
			r.log.DebugContext(ctx, "thread execution in progress", "execution_id", id, "poll", polls)
			if err := r.sleep(ctx, r.pollInterval); err != nil {
				return nil, polls, fmt.Errorf("polling thread execution %s: %w", id, err)
			}
		default:
			return nil, polls, &UnknownStatusError{ExecutionID: id, Status: string(status)}
		}
	}
}
