package gateways

import (
	"context"
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// stubTool is a minimal chat.Tool for conversion tests.
type stubTool struct {
	name        string
	description string
	schema      string
}

func (t stubTool) Name() string            { return t.name }
func (t stubTool) Description() string     { return t.description }
func (t stubTool) Schema() json.RawMessage { return json.RawMessage(t.schema) }

func (t stubTool) Execute(ctx context.Context, params json.RawMessage) (*chat.ToolResult, error) {
	return &chat.ToolResult{Content: "ok"}, nil
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatal("expected an error for a missing API key")
	}
	g, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	if g.model != "gpt-4o" {
		t.Errorf("default model = %q, want gpt-4o", g.model)
	}
	if g.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", g.Name())
	}
}

func TestConvertOpenAIMessages(t *testing.T) {
	history := []models.Message{
		models.NewSystemMessage("seed"),
		models.NewUserMessage("check dns"),
		models.NewToolCallMessage("", []models.ToolCall{
			{ID: "c1", Name: "dns_lookup", Input: json.RawMessage(`{"hostname":"example.com"}`)},
		}),
		models.NewToolResultMessage("93.184.216.34", "c1"),
		models.NewAssistantMessage("resolved fine"),
	}

	got := convertOpenAIMessages(history)
	if len(got) != 5 {
		t.Fatalf("got %d messages, want 5", len(got))
	}

	if got[0].Role != openai.ChatMessageRoleSystem || got[0].Content != "seed" {
		t.Errorf("system message = %+v", got[0])
	}
	if got[1].Role != openai.ChatMessageRoleUser {
		t.Errorf("user message role = %q", got[1].Role)
	}

	req := got[2]
	if req.Role != openai.ChatMessageRoleAssistant || len(req.ToolCalls) != 1 {
		t.Fatalf("tool-call message = %+v", req)
	}
	if req.ToolCalls[0].ID != "c1" || req.ToolCalls[0].Function.Name != "dns_lookup" {
		t.Errorf("tool call = %+v", req.ToolCalls[0])
	}
	if req.ToolCalls[0].Function.Arguments != `{"hostname":"example.com"}` {
		t.Errorf("tool call arguments = %q", req.ToolCalls[0].Function.Arguments)
	}

	res := got[3]
	if res.Role != openai.ChatMessageRoleTool || res.ToolCallID != "c1" || res.Content != "93.184.216.34" {
		t.Errorf("tool result message = %+v", res)
	}

	if got[4].Role != openai.ChatMessageRoleAssistant || got[4].Content != "resolved fine" {
		t.Errorf("final assistant message = %+v", got[4])
	}
}

func TestConvertOpenAITools(t *testing.T) {
	tools := []chat.Tool{
		stubTool{
			name:        "vpn_status",
			description: "Reports VPN connectivity",
			schema:      `{"type":"object"}`,
		},
	}

	got := convertOpenAITools(tools)
	if len(got) != 1 {
		t.Fatalf("got %d tools, want 1", len(got))
	}
	if got[0].Type != openai.ToolTypeFunction {
		t.Errorf("tool type = %q, want function", got[0].Type)
	}
	fn := got[0].Function
	if fn.Name != "vpn_status" || fn.Description != "Reports VPN connectivity" {
		t.Errorf("function definition = %+v", fn)
	}
	params, ok := fn.Parameters.(json.RawMessage)
	if !ok || string(params) != `{"type":"object"}` {
		t.Errorf("function parameters = %v", fn.Parameters)
	}
}
