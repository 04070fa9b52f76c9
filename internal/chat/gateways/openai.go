package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// OpenAIConfig holds configuration for the OpenAI gateway. All fields
// except APIKey are optional.
type OpenAIConfig struct {
	// APIKey is the OpenAI API authentication key (required).
	APIKey string

	// BaseURL overrides the default API base URL. Useful for
	// OpenAI-compatible servers.
	BaseURL string

	// Model is the model to send requests to. Default: "gpt-4o".
	Model string

	// MaxRetries sets the maximum retry attempts for transient failures.
	// Default: 3
	MaxRetries int

	// RetryDelay is the base delay between retries; actual delay uses
	// exponential backoff. Default: 1 second.
	RetryDelay time.Duration
}

// OpenAI implements chat.Gateway over the Chat Completions API. It also
// serves OpenAI-compatible endpoints via BaseURL.
type OpenAI struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

var _ chat.Gateway = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI gateway from the given configuration.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Name returns "openai".
func (g *OpenAI) Name() string {
	return "openai"
}

// Respond sends the conversation to the Chat Completions API and returns
// the assistant's reply as a single message.
func (g *OpenAI) Respond(ctx context.Context, history []models.Message, tools []chat.Tool) (*models.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: convertOpenAIMessages(history),
	}
	if len(tools) > 0 {
		req.Tools = convertOpenAITools(tools)
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		gwErr := NewGatewayError("openai", g.model, err)
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

	if len(resp.Choices) == 0 {
		return nil, chat.ErrEmptyResponse
	}
	choice := resp.Choices[0].Message

	var calls []models.ToolCall
	for _, tc := range choice.ToolCalls {
		calls = append(calls, models.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}

	if choice.Content == "" && len(calls) == 0 {
		return nil, chat.ErrEmptyResponse
	}

	var msg models.Message
	if len(calls) > 0 {
		msg = models.NewToolCallMessage(choice.Content, calls)
	} else {
		msg = models.NewAssistantMessage(choice.Content)
	}
	return &msg, nil
}

func convertOpenAIMessages(history []models.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})
		case models.RoleTool:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		case models.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			for _, tc := range msg.ToolCalls {
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Input),
					},
				})
			}
			result = append(result, oaiMsg)
		default:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		}
	}
	return result
}

func convertOpenAITools(tools []chat.Tool) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Schema(),
			},
		})
	}
	return result
}
