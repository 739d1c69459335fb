package tools

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
)

var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrDuplicateTool = errors.New("tool already registered")
)

type Tool struct {
	Name        string
	Description string
	InputSchema anthropic.ToolInputSchemaParam
	Handler     Handler
}

// Descriptor is the wire form of a tool inside an execution request.
type Descriptor struct {
	Name        string                         `json:"name"`
	Description string                         `json:"description"`
	InputSchema anthropic.ToolInputSchemaParam `json:"input_schema"`
}

func (t Tool) Descriptor() Descriptor {
	return Descriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
}

// Registry maps tool names to tools. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("registering tool: empty name")
	}
	if t.Handler == nil {
		return fmt.Errorf("registering tool %q: nil handler", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = make(map[string]Tool)
	}
	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("registering tool %q: %w", t.Name, ErrDuplicateTool)
	}
	r.tools[t.Name] = t
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, error) {
	if r != nil {
		r.mu.RLock()
		t, ok := r.tools[name]
		r.mu.RUnlock()
		if ok {
			return t, nil
		}
	}
	return Tool{}, fmt.Errorf("%q: %w", name, ErrToolNotFound)
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptors resolves names to their wire descriptors, preserving order.
// The reserved human-in-the-loop name resolves to HumanInTheLoopTool unless a
// tool with that name was registered explicitly.
func (r *Registry) Descriptors(names []string) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		t, err := r.Lookup(name)
		if errors.Is(err, ErrToolNotFound) && name == HumanInTheLoopName {
			t, err = HumanInTheLoopTool, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t.Descriptor())
	}
	return out, nil
}
