package execution

import "encoding/json"

type EventType string

const (
	EventToolUse    EventType = "tool_use"
	EventToolResult EventType = "tool_result"
)

// Event is published to an observer channel while tools run. Content is a
// ToolUseContent or a ToolResultContent depending on Type.
type Event struct {
	Type    EventType `json:"type"`
	Content any       `json:"content"`
}

type ToolUseContent struct {
	ToolName  string          `json:"tool_name"`
	ToolInput json.RawMessage `json:"tool_input"`
	ToolUseID string          `json:"tool_use_id"`
}

type ToolResultContent struct {
	ToolUseID string          `json:"tool_use_id"`
	Result    json.RawMessage `json:"result"`
}

// publish never blocks: with a nil or full channel the event is dropped.
func publish(ch chan<- Event, ev Event) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
