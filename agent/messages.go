package agent

import (
	"fmt"

	"snello/memory"
)

// Message represents a chat message in an agent turn.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set when Role == "tool"
	Name       string     `json:"name,omitempty"`         // tool name when Role == "tool"
}

// ToolCall represents the model's request to invoke a tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult holds the output of a tool execution.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Human creates a user message.
func Human(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// System creates a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AI creates an assistant message with optional tool calls.
func AI(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMsg creates a tool result message.
func ToolMsg(toolCallID, name, output string) Message {
	return Message{Role: RoleTool, Content: output, ToolCallID: toolCallID, Name: name}
}

// FromHistory converts stored conversation entries into chat messages.
func FromHistory(entries []memory.ConversationEntry) []Message {
	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		role := RoleUser
		if e.Role == memory.RoleAssistant {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: e.Message})
	}
	return msgs
}

// Validate checks that a message list is well-formed before it goes to
// the model: known roles, tool results tied to a call, no fully empty
// assistant turns.
func Validate(msgs []Message) error {
	for i, msg := range msgs {
		switch msg.Role {
		case RoleSystem, RoleUser:
			if msg.Content == "" {
				return fmt.Errorf("message[%d]: %s message has empty content", i, msg.Role)
			}
		case RoleAssistant:
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				return fmt.Errorf("message[%d]: assistant message has no content and no tool calls", i)
			}
		case RoleTool:
			if msg.ToolCallID == "" || msg.Name == "" {
				return fmt.Errorf("message[%d]: tool message missing call id or name", i)
			}
		default:
			return fmt.Errorf("message[%d]: unknown role %q", i, msg.Role)
		}
	}
	return nil
}
