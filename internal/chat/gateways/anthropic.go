package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// AnthropicConfig holds configuration for the Anthropic gateway. All
// fields except APIKey are optional.
type AnthropicConfig struct {
	// APIKey is the Anthropic API authentication key (required).
	APIKey string

	// BaseURL overrides the default API base URL.
	BaseURL string

	// Model is the model to send requests to.
	// Default: "claude-sonnet-4-20250514"
	Model string

	// MaxTokens caps the response length. Default: 4096.
	MaxTokens int

	// MaxRetries sets the maximum retry attempts for transient failures.
	// Set to 0 to disable retries. Default: 3
	MaxRetries int

	// RetryDelay is the base delay between retries; actual delay uses
	// exponential backoff (delay * 2^attempt). Default: 1 second.
	RetryDelay time.Duration
}

// Anthropic implements chat.Gateway over the Anthropic Messages API.
//
// Requests are non-streaming: the orchestrator consumes whole assistant
// messages, so the gateway waits for the complete response rather than
// surfacing deltas. Transient failures (rate limits, 5xx, timeouts) are
// retried with exponential backoff before the error is reported.
type Anthropic struct {
	client     anthropic.Client
	model      string
	maxTokens  int
	maxRetries int
	retryDelay time.Duration
}

var _ chat.Gateway = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic gateway from the given configuration.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		client:     anthropic.NewClient(options...),
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Name returns "anthropic".
func (g *Anthropic) Name() string {
	return "anthropic"
}

// Respond sends the conversation to the Messages API and returns the
// assistant's reply as a single message.
func (g *Anthropic) Respond(ctx context.Context, history []models.Message, tools []chat.Tool) (*models.Message, error) {
	params, err := g.buildParams(history, tools)
	if err != nil {
		return nil, err
	}

	var resp *anthropic.Message
	for attempt := 0; ; attempt++ {
		resp, err = g.client.Messages.New(ctx, params)
		if err == nil {
			break
		}
		gwErr := NewGatewayError("anthropic", g.model, err)
		if !gwErr.Reason.IsRetryable() || attempt >= g.maxRetries {
			return nil, gwErr
		}
		backoff := g.retryDelay * time.Duration(math.Pow(2, float64(attempt)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return messageFromResponse(resp)
}

// buildParams converts conversation history and the tool manifest into
// Anthropic request parameters. The leading system message, if any,
// becomes params.System; the Messages API keeps system prompts out of
// the message list.
func (g *Anthropic) buildParams(history []models.Message, tools []chat.Tool) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.maxTokens),
	}

	var messages []anthropic.MessageParam
	for i := 0; i < len(history); i++ {
		msg := history[i]
		if msg.Role == models.RoleSystem {
			params.System = []anthropic.TextBlockParam{{Type: "text", Text: msg.Content}}
			continue
		}

		if msg.Role == models.RoleTool {
			// Tool results travel as user-role content blocks. The API
			// requires user/assistant roles to alternate, so a run of
			// results from one turn packs into a single user message.
			var results []anthropic.ContentBlockParamUnion
			for ; i < len(history) && history[i].Role == models.RoleTool; i++ {
				results = append(results, anthropic.NewToolResultBlock(history[i].ToolCallID, history[i].Content, false))
			}
			i--
			messages = append(messages, anthropic.NewUserMessage(results...))
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal(tc.Input, &input); err != nil {
				return params, fmt.Errorf("anthropic: invalid tool call input: %w", err)
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}
		if len(content) == 0 {
			continue
		}

		if msg.Role == models.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(content...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(content...))
		}
	}
	params.Messages = messages

	if len(tools) > 0 {
		converted, err := convertAnthropicTools(tools)
		if err != nil {
			return params, err
		}
		params.Tools = converted
	}

	return params, nil
}

func convertAnthropicTools(tools []chat.Tool) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("anthropic: invalid tool schema for %s: %w", tool.Name(), err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("anthropic: invalid tool schema for %s: missing tool definition", tool.Name())
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description())
		result = append(result, toolParam)
	}
	return result, nil
}

// messageFromResponse flattens the response content blocks into one
// assistant message: text blocks concatenate, tool_use blocks become
// tool call requests in block order.
func messageFromResponse(resp *anthropic.Message) (*models.Message, error) {
	if resp == nil {
		return nil, chat.ErrEmptyResponse
	}

	var text strings.Builder
	var calls []models.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolUse := block.AsToolUse()
			calls = append(calls, models.ToolCall{
				ID:    toolUse.ID,
				Name:  toolUse.Name,
				Input: json.RawMessage(toolUse.JSON.Input.Raw()),
			})
		}
	}

	if text.Len() == 0 && len(calls) == 0 {
		return nil, chat.ErrEmptyResponse
	}

	var msg models.Message
	if len(calls) > 0 {
		msg = models.NewToolCallMessage(text.String(), calls)
	} else {
		msg = models.NewAssistantMessage(text.String())
	}
	return &msg, nil
}
