package execution

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrExecutionFailed is returned when the service reports status "failed".
	ErrExecutionFailed = errors.New("thread execution failed")

	// ErrHumanHandlerRequired is returned before any request is made when
	// human-in-the-loop is enabled without a handler.
	ErrHumanHandlerRequired = errors.New("human intervention handler is required when human-in-the-loop is enabled")

	// ErrMissingToolUse is returned when a response stops for tool use but
	// carries no tool_use content to act on.
	ErrMissingToolUse = errors.New("stop_reason is tool_use but the response has no tool_use content")
)

// StatusError is a non-200 answer from the service.
type StatusError struct {
	Op   string
	Code int
	Body json.RawMessage
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to %s, status code: %d, response: %s", e.Op, e.Code, e.Body)
}

// UnknownStatusError is a status value outside the protocol.
type UnknownStatusError struct {
	ExecutionID string
	Status      string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown thread execution status %q for %s", e.Status, e.ExecutionID)
}

// ToolError wraps a failure to resolve or run a requested tool.
type ToolError struct {
	Name      string
	ToolUseID string
	Err       error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("error executing tool %s: %v", e.Name, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
