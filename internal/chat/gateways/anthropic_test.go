package gateways

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

func TestNewAnthropicRequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropic(AnthropicConfig{}); err == nil {
		t.Fatal("expected an error for a missing API key")
	}
	g, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}
	if g.model != "claude-sonnet-4-20250514" {
		t.Errorf("default model = %q", g.model)
	}
	if g.maxTokens != 4096 {
		t.Errorf("default max tokens = %d", g.maxTokens)
	}
	if g.Name() != "anthropic" {
		t.Errorf("Name() = %q, want anthropic", g.Name())
	}
}

func TestAnthropicBuildParams(t *testing.T) {
	g, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}

	history := []models.Message{
		models.NewSystemMessage("seed"),
		models.NewUserMessage("check dns"),
		models.NewToolCallMessage("", []models.ToolCall{
			{ID: "c1", Name: "dns_lookup", Input: json.RawMessage(`{"hostname":"example.com"}`)},
		}),
		models.NewToolResultMessage("93.184.216.34", "c1"),
	}
	tools := []chat.Tool{stubTool{
		name:        "dns_lookup",
		description: "Resolves a hostname",
		schema:      `{"type":"object","properties":{"hostname":{"type":"string"}}}`,
	}}

	params, err := g.buildParams(history, tools)
	if err != nil {
		t.Fatalf("buildParams() error = %v", err)
	}

	if len(params.System) != 1 || params.System[0].Text != "seed" {
		t.Errorf("system prompt = %+v, want the seed extracted", params.System)
	}
	// seed excluded; user, assistant tool request, tool result.
	if len(params.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(params.Messages))
	}
	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser, // tool results travel as user content
	}
	for i, want := range wantRoles {
		if params.Messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, params.Messages[i].Role, want)
		}
	}

	if len(params.Tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(params.Tools))
	}
	tool := params.Tools[0].OfTool
	if tool == nil || tool.Name != "dns_lookup" {
		t.Errorf("converted tool = %+v", params.Tools[0])
	}
}

func TestAnthropicBuildParamsPacksToolResultRuns(t *testing.T) {
	g, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}

	// Two tool calls in one turn yield two consecutive tool messages;
	// their results must land in a single user message so the request
	// keeps alternating user/assistant roles.
	history := []models.Message{
		models.NewUserMessage("check vpn and dns"),
		models.NewToolCallMessage("", []models.ToolCall{
			{ID: "c1", Name: "vpn_status", Input: json.RawMessage(`{}`)},
			{ID: "c2", Name: "dns_lookup", Input: json.RawMessage(`{"hostname":"example.com"}`)},
		}),
		models.NewToolResultMessage(`{"vpn_active":false}`, "c1"),
		models.NewToolResultMessage("93.184.216.34", "c2"),
	}

	params, err := g.buildParams(history, nil)
	if err != nil {
		t.Fatalf("buildParams() error = %v", err)
	}

	if len(params.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(params.Messages))
	}
	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
	}
	for i, want := range wantRoles {
		if params.Messages[i].Role != want {
			t.Errorf("message %d role = %q, want %q", i, params.Messages[i].Role, want)
		}
	}
	if got := len(params.Messages[2].Content); got != 2 {
		t.Errorf("packed result message has %d blocks, want 2", got)
	}
}

func TestAnthropicBuildParamsRejectsBadToolInput(t *testing.T) {
	g, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}

	history := []models.Message{
		models.NewToolCallMessage("", []models.ToolCall{
			{ID: "c1", Name: "dns_lookup", Input: json.RawMessage(`not json`)},
		}),
	}
	if _, err := g.buildParams(history, nil); err == nil {
		t.Fatal("expected an error for unparseable tool call input")
	}
}

func TestAnthropicBuildParamsOmitsToolsWhenNil(t *testing.T) {
	g, err := NewAnthropic(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropic() error = %v", err)
	}

	params, err := g.buildParams([]models.Message{models.NewUserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("buildParams() error = %v", err)
	}
	if len(params.Tools) != 0 {
		t.Error("nil manifest must not produce a tools field")
	}
}
