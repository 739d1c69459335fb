package execution_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-threadexec/api"
	"github.com/petasbytes/go-threadexec/execution"
	"github.com/petasbytes/go-threadexec/tools"
)

// fakeService scripts the thread execution endpoints. Status sequences are
// consumed one value per query; the last value repeats.
type fakeService struct {
	mu        sync.Mutex
	statuses  map[string][]string
	responses map[string]string
	nextIDs   []string
	failPath  map[string]int

	calls  []string
	posted []json.RawMessage
}

func newFakeService() *fakeService {
	return &fakeService{
		statuses:  map[string][]string{},
		responses: map[string]string{},
		failPath:  map[string]int{},
	}
}

func (f *fakeService) script(id string, response string, statuses ...string) {
	f.statuses[id] = statuses
	f.responses[id] = response
}

func (f *fakeService) Get(_ context.Context, path string) (api.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "GET "+path)
	if code, ok := f.failPath[path]; ok {
		return api.Response{Status: code, Data: json.RawMessage(`{"error":"unavailable"}`)}, nil
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "threadexec" {
		return api.Response{Status: 404, Data: json.RawMessage(`{"error":"not found"}`)}, nil
	}
	id := parts[1]
	switch parts[2] {
	case "status":
		seq := f.statuses[id]
		if len(seq) == 0 {
			return api.Response{Status: 404, Data: json.RawMessage(`{"error":"unknown execution"}`)}, nil
		}
		status := seq[0]
		if len(seq) > 1 {
			f.statuses[id] = seq[1:]
		}
		return api.Response{Status: 200, Data: json.RawMessage(fmt.Sprintf(`{"status":%q}`, status))}, nil
	case "response":
		return api.Response{Status: 200, Data: json.RawMessage(f.responses[id])}, nil
	}
	return api.Response{Status: 404, Data: json.RawMessage(`{"error":"not found"}`)}, nil
}

func (f *fakeService) Post(_ context.Context, path string, body any) (api.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "POST "+path)
	b, err := json.Marshal(body)
	if err != nil {
		return api.Response{}, err
	}
	f.posted = append(f.posted, b)
	if code, ok := f.failPath[path]; ok {
		return api.Response{Status: code, Data: json.RawMessage(`{"error":"rejected"}`)}, nil
	}
	if len(f.nextIDs) == 0 {
		return api.Response{Status: 200, Data: json.RawMessage(`{}`)}, nil
	}
	id := f.nextIDs[0]
	f.nextIDs = f.nextIDs[1:]
	return api.Response{Status: 200, Data: json.RawMessage(fmt.Sprintf(`{"identifier":%q}`, id))}, nil
}

func (f *fakeService) postCount() int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, "POST ") {
			n++
		}
	}
	return n
}

// lastBody decodes the most recent POST body.
func (f *fakeService) lastBody(t *testing.T) map[string]json.RawMessage {
	t.Helper()
	require.NotEmpty(t, f.posted)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(f.posted[len(f.posted)-1], &m))
	return m
}

type countingTools struct {
	execution.ToolSet
	lookups int
}

func (c *countingTools) Lookup(name string) (tools.Tool, error) {
	c.lookups++
	return c.ToolSet.Lookup(name)
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return ctx.Err()
}

type echoInput struct {
	Text string `json:"text"`
}

// echoRegistry holds "echo", which returns its input text upper-cased, and
// "broken", which always fails.
func echoRegistry(t *testing.T, calls *int) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(
		tools.Tool{
			Name:        "echo",
			Description: "Echo text back in upper case.",
			InputSchema: tools.GenerateSchema[echoInput](),
			Handler: tools.Typed(func(_ context.Context, in echoInput) (string, error) {
				*calls++
				return strings.ToUpper(in.Text), nil
			}),
		},
		tools.Tool{
			Name:        "broken",
			Description: "Always fails.",
			InputSchema: tools.GenerateSchema[echoInput](),
			Handler: tools.HandlerFunc(func(context.Context, json.RawMessage) (json.RawMessage, error) {
				*calls++
				return nil, errBroken
			}),
		},
	)
	require.NoError(t, err)
	return reg
}

type harness struct {
	svc    *fakeService
	tools  *countingTools
	sleeps *sleepRecorder
	runner *execution.Runner
	calls  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{svc: newFakeService(), sleeps: &sleepRecorder{}}
	h.tools = &countingTools{ToolSet: echoRegistry(t, &h.calls)}
	h.runner = execution.New(h.svc, h.tools,
		execution.WithPollInterval(3*time.Second),
		execution.WithSleeper(h.sleeps.sleep),
	)
	return h
}

const endTurn = `{"response":{"stop_reason":"end_turn","content":[{"type":"text","text":"done"}]}}`
