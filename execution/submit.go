package execution

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petasbytes/go-threadexec/internal/telemetry"
	"github.com/petasbytes/go-threadexec/tools"
)

// NullThreadID is the thread the service uses for executions that are not
// stored against a real thread.
const NullThreadID = "compext_thread_null"

// Request is everything needed to (re)submit an execution. The tool loop
// appends to Messages; nothing else mutates it.
type Request struct {
	ThreadID                string
	ParamID                 string
	Messages                []Message
	SystemPrompt            string
	AppendAssistantResponse bool
	Metadata                map[string]any
	// Tools are registry names. The human-in-the-loop tool is added at
	// submission time when HumanInTheLoop is set; it is never stored here.
	Tools          []string
	HumanInTheLoop bool
}

func (q Request) toolNames() []string {
	names := slices.Clone(q.Tools)
	if q.HumanInTheLoop && !slices.Contains(names, tools.HumanInTheLoopName) {
		names = append(names, tools.HumanInTheLoopName)
	}
	return names
}

// Execution is the state of one execution chain: the id of the execution
// currently being tracked and the request that produced it.
type Execution struct {
	ID      string
	Request Request

	chainID      string
	humanHandler tools.Handler
}

// ChainID correlates this execution and its resubmissions in telemetry.
func (e *Execution) ChainID() string { return e.chainID }

type Option func(*submitOptions)

type submitOptions struct {
	threadID        string
	systemPrompt    string
	appendAssistant bool
	metadata        map[string]any
	humanInTheLoop  bool
	humanHandler    tools.Handler
}

func WithThreadID(id string) Option {
	return func(o *submitOptions) { o.threadID = id }
}

func WithSystemPrompt(prompt string) Option {
	return func(o *submitOptions) { o.systemPrompt = prompt }
}

// WithAppendAssistantResponse controls whether the service stores the
// assistant's answer on the thread. Defaults to true.
func WithAppendAssistantResponse(v bool) Option {
	return func(o *submitOptions) { o.appendAssistant = v }
}

// WithMetadata attaches a copy of m to the request.
func WithMetadata(m map[string]any) Option {
	return func(o *submitOptions) { o.metadata = maps.Clone(m) }
}

// WithHumanInTheLoop offers the human_in_the_loop tool and answers its calls
// with h. A nil h makes submission fail with ErrHumanHandlerRequired.
func WithHumanInTheLoop(h tools.Handler) Option {
	return func(o *submitOptions) {
		o.humanInTheLoop = true
		o.humanHandler = h
	}
}

type executeBody struct {
	ThreadExecutionParamID  string             `json:"thread_execution_param_id"`
	AppendAssistantResponse bool               `json:"append_assistant_response"`
	SystemPrompt            string             `json:"thread_execution_system_prompt"`
	Messages                []Message          `json:"messages"`
	Metadata                map[string]any     `json:"metadata"`
	Tools                   []tools.Descriptor `json:"tools,omitempty"`
}

// Execute submits messages without offering any tools.
func (r *Runner) Execute(ctx context.Context, paramID string, messages []Message, opts ...Option) (*Execution, error) {
	return r.ExecuteWithTools(ctx, paramID, messages, nil, opts...)
}

// ExecuteWithTools submits messages and offers the named tools. The caller's
// messages and tool names are copied, never modified.
func (r *Runner) ExecuteWithTools(ctx context.Context, paramID string, messages []Message, toolNames []string, opts ...Option) (*Execution, error) {
	o := submitOptions{threadID: NullThreadID, appendAssistant: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.humanInTheLoop && o.humanHandler == nil {
		return nil, ErrHumanHandlerRequired
	}
	if o.metadata == nil {
		o.metadata = map[string]any{}
	}

	req := Request{
		ThreadID:                o.threadID,
		ParamID:                 paramID,
		Messages:                slices.Clone(messages),
		SystemPrompt:            o.systemPrompt,
		AppendAssistantResponse: o.appendAssistant,
		Metadata:                o.metadata,
		Tools:                   slices.Clone(toolNames),
		HumanInTheLoop:          o.humanInTheLoop,
	}

	ctx, chainID := telemetry.EnsureChainID(ctx)
	id, err := r.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Execution{ID: id, Request: req, chainID: chainID, humanHandler: o.humanHandler}, nil
}

func (r *Runner) submit(ctx context.Context, req Request) (string, error) {
	ctx, span := r.tracer.Start(ctx, "Runner.submit", trace.WithAttributes(
		attribute.String("threadexec.thread_id", req.ThreadID),
		attribute.String("threadexec.param_id", req.ParamID),
		attribute.Int("threadexec.messages", len(req.Messages)),
	))
	defer span.End()

	names := req.toolNames()
	var descriptors []tools.Descriptor
	if len(names) > 0 {
		var err error
		if descriptors, err = r.tools.Descriptors(names); err != nil {
			return "", fmt.Errorf("resolving tools: %w", err)
		}
	}

	messages := req.Messages
	if messages == nil {
		messages = []Message{}
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	path := fmt.Sprintf("/thread/%s/execute", req.ThreadID)
	resp, err := r.client.Post(ctx, path, executeBody{
		ThreadExecutionParamID:  req.ParamID,
		AppendAssistantResponse: req.AppendAssistantResponse,
		SystemPrompt:            req.SystemPrompt,
		Messages:                messages,
		Metadata:                metadata,
		Tools:                   descriptors,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("executing thread: %w", err)
	}
	if !resp.OK() {
		err := &StatusError{Op: "execute thread", Code: resp.Status, Body: resp.Data}
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	id := gjson.GetBytes(resp.Data, "identifier").String()
	if id == "" {
		return "", fmt.Errorf("executing thread: response has no identifier: %s", resp.Data)
	}
	span.SetAttributes(attribute.String("threadexec.execution_id", id))

	chainID, _ := telemetry.ChainIDFromContext(ctx)
	telemetry.Emit("execution_submitted", map[string]any{
		"chain_id":     chainID,
		"execution_id": id,
		"thread_id":    req.ThreadID,
		"param_id":     req.ParamID,
		"messages":     len(messages),
		"tools":        len(descriptors),
	})
	r.log.DebugContext(ctx, "thread execution submitted", "execution_id", id, "messages", len(messages), "tools", len(descriptors))
	return id, nil
}
