// Package models defines the shared message types for Breadcrumbs
// conversations.
package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role indicates the message author type.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall represents an LLM's request to execute a tool.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Message is one immutable turn in a conversation. A message is created
// once, appended to history in arrival order, and never mutated.
//
// ToolCalls is populated only on assistant messages that request tool
// execution. ToolCallID is populated only on tool-role messages and
// back-references the ToolCall it answers.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewSystemMessage creates the behavioral preamble message.
func NewSystemMessage(content string) Message {
	return newMessage(RoleSystem, content)
}

// NewUserMessage creates a user turn.
func NewUserMessage(content string) Message {
	return newMessage(RoleUser, content)
}

// NewAssistantMessage creates a plain assistant reply.
func NewAssistantMessage(content string) Message {
	return newMessage(RoleAssistant, content)
}

// NewToolCallMessage creates an assistant message carrying tool-call
// requests. Content may be empty for tool-only responses.
func NewToolCallMessage(content string, calls []ToolCall) Message {
	msg := newMessage(RoleAssistant, content)
	msg.ToolCalls = calls
	return msg
}

// NewToolResultMessage creates a tool-role message answering the tool-call
// request identified by toolCallID.
func NewToolResultMessage(content, toolCallID string) Message {
	msg := newMessage(RoleTool, content)
	msg.ToolCallID = toolCallID
	return msg
}

func newMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Validate checks the structural invariants of a message: a non-empty
// tool-call back-reference exactly on tool messages, and a non-empty
// tool-call list only on assistant messages.
func (m Message) Validate() error {
	if m.ID == "" {
		return errors.New("message id is empty")
	}
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return errors.New("unknown message role: " + string(m.Role))
	}
	if (m.ToolCallID != "") != (m.Role == RoleTool) {
		return errors.New("tool_call_id must be set exactly on tool messages")
	}
	if len(m.ToolCalls) > 0 && m.Role != RoleAssistant {
		return errors.New("tool_calls are only valid on assistant messages")
	}
	return nil
}

// HasToolCalls reports whether the message requests tool execution.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
