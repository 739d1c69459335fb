package execution

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Content is either a JSON string or an
// array of content blocks, exactly as sent on the wire.
type Message struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// NewMessage encodes content for the given role.
func NewMessage(role Role, content any) (Message, error) {
	b, err := json.Marshal(content)
	if err != nil {
		return Message{}, fmt.Errorf("encoding %s message content: %w", role, err)
	}
	return Message{Role: role, Content: b}, nil
}

// NewUserMessage returns a plain-text user turn.
func NewUserMessage(text string) Message {
	b, _ := json.Marshal(text)
	return Message{Role: RoleUser, Content: b}
}

func newAssistantMessage(content json.RawMessage) Message {
	return Message{Role: RoleAssistant, Content: orNull(content)}
}

type toolResultBlock struct {
	Type      string          `json:"type"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

func newToolResultMessage(toolUseID string, result json.RawMessage) (Message, error) {
	b, err := json.Marshal([]toolResultBlock{{
		Type:      "tool_result",
		ToolUseID: toolUseID,
		Content:   orNull(result),
	}})
	if err != nil {
		return Message{}, fmt.Errorf("encoding tool_result for %s: %w", toolUseID, err)
	}
	return Message{Role: RoleUser, Content: b}, nil
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
