package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler executes one tool call. input is the raw JSON object from the
// tool_use entry; the returned value becomes the tool_result content.
type Handler interface {
	Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

type HandlerFunc func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)

func (f HandlerFunc) Call(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return f(ctx, input)
}

// Typed adapts a function over concrete input and output types. The input is
// decoded from JSON before fn runs and the output is encoded afterwards.
func Typed[In, Out any](fn func(ctx context.Context, in In) (Out, error)) Handler {
	return HandlerFunc(func(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
		var in In
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, fmt.Errorf("decoding input: %w", err)
			}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encoding result: %w", err)
		}
		return b, nil
	})
}

// Text adapts a string-returning function; the string is sent as a JSON string.
func Text(fn func(input json.RawMessage) (string, error)) Handler {
	return HandlerFunc(func(_ context.Context, input json.RawMessage) (json.RawMessage, error) {
		s, err := fn(input)
		if err != nil {
			return nil, err
		}
		return json.Marshal(s)
	})
}
