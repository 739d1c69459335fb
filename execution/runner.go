package execution

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/petasbytes/go-threadexec/tools"
)

// DefaultPollInterval is the wait between status checks while an execution
// is in progress.
const DefaultPollInterval = 3 * time.Second

const tracerName = "github.com/petasbytes/go-threadexec/execution"

// ToolSet resolves tool names for dispatch and for execution requests.
// *tools.Registry implements it.
type ToolSet interface {
	Lookup(name string) (tools.Tool, error)
	Descriptors(names []string) ([]tools.Descriptor, error)
}

var _ ToolSet = (*tools.Registry)(nil)

// Runner submits and drives executions. It keeps no per-execution state, so
// one Runner can serve any number of Execution values.
type Runner struct {
	client       Transport
	tools        ToolSet
	pollInterval time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
	log          *slog.Logger
	tracer       trace.Tracer
}

type RunnerOption func(*Runner)

func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.pollInterval = d }
}

// WithSleeper replaces the wait used between status checks.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// New returns a Runner over client. toolSet may be nil when no local tools
// are offered.
func New(client Transport, toolSet ToolSet, opts ...RunnerOption) *Runner {
	if client == nil {
		panic("execution: transport is required")
	}
	if toolSet == nil {
		toolSet = (*tools.Registry)(nil)
	}

	r := &Runner{
		client:       client,
		tools:        toolSet,
		pollInterval: DefaultPollInterval,
		sleep:        sleepContext,
		log:          slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
