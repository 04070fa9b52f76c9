package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
	"github.com/haasonsaas/breadcrumbs/pkg/models"
)

// OllamaConfig configures the Ollama gateway.
type OllamaConfig struct {
	// BaseURL is the Ollama server address.
	// Default: "http://localhost:11434"
	BaseURL string

	// Model is the model to send requests to (required).
	Model string

	// Timeout bounds the whole HTTP exchange. Default: 2 minutes; local
	// models can be slow to load on first use.
	Timeout time.Duration
}

// Ollama implements chat.Gateway over a local Ollama server's /api/chat
// endpoint. Requests use stream:false; Ollama's tool_calls arrive
// without ids, so the gateway assigns its own.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
}

var _ chat.Gateway = (*Ollama)(nil)

// NewOllama creates an Ollama gateway from the given configuration.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Ollama{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		model:   model,
	}, nil
}

// Name returns "ollama".
func (g *Ollama) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Tools    []openai.Tool       `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaChatResponse struct {
	Message *ollamaChatMessage `json:"message"`
	Done    bool               `json:"done"`
	Error   string             `json:"error"`
}

type ollamaToolCall struct {
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Respond sends the conversation to Ollama and returns the reply as a
// single assistant message.
func (g *Ollama) Respond(ctx context.Context, history []models.Message, tools []chat.Tool) (*models.Message, error) {
	payload := ollamaChatRequest{
		Model:    g.model,
		Messages: convertOllamaMessages(history),
		Stream:   false,
	}
	if len(tools) > 0 {
		payload.Tools = convertOpenAITools(tools)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewGatewayError("ollama", g.model, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, NewGatewayError("ollama", g.model, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, NewGatewayError("ollama", g.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, NewGatewayError("ollama", g.model,
			fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))).
			WithStatus(resp.StatusCode)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, NewGatewayError("ollama", g.model, fmt.Errorf("decode response: %w", err))
	}
	if chatResp.Error != "" {
		return nil, NewGatewayError("ollama", g.model, fmt.Errorf("%s", chatResp.Error))
	}
	if chatResp.Message == nil {
		return nil, chat.ErrEmptyResponse
	}

	var calls []models.ToolCall
	for _, tc := range chatResp.Message.ToolCalls {
		input := tc.Function.Arguments
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		calls = append(calls, models.ToolCall{
			ID:    uuid.NewString(),
			Name:  tc.Function.Name,
			Input: input,
		})
	}

	if chatResp.Message.Content == "" && len(calls) == 0 {
		return nil, chat.ErrEmptyResponse
	}

	var msg models.Message
	if len(calls) > 0 {
		msg = models.NewToolCallMessage(chatResp.Message.Content, calls)
	} else {
		msg = models.NewAssistantMessage(chatResp.Message.Content)
	}
	return &msg, nil
}

// convertOllamaMessages maps history onto Ollama's chat roles. Ollama
// accepts a plain "tool" role with the result in content; the call id is
// local bookkeeping and does not travel.
func convertOllamaMessages(history []models.Message) []ollamaChatMessage {
	result := make([]ollamaChatMessage, 0, len(history))
	for _, msg := range history {
		out := ollamaChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		for _, tc := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, ollamaToolCall{
				Function: ollamaToolFunction{
					Name:      tc.Name,
					Arguments: tc.Input,
				},
			})
		}
		result = append(result, out)
	}
	return result
}
