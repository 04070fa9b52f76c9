// Package chat implements the tool-augmented conversation core: the tool
// registry, the model gateway boundary, the conversation orchestrator, and
// the turn grouping projector.
package chat

import (
	"context"
	"encoding/json"
)

// Tool defines the interface for executable diagnostic capabilities.
//
// Tools extend the assistant by letting the model request local probes
// (VPN status, DNS resolution, connectivity checks, process inspection)
// mid-conversation. Implementations must be safe for concurrent use.
type Tool interface {
	// Name returns the tool name used for registry lookup and LLM
	// function calling. Must be alphanumeric with underscores.
	Name() string

	// Description returns a natural language description consumed by the
	// model gateway to decide applicability.
	Description() string

	// Schema returns the JSON Schema describing the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters and returns
	// the result. Failures the model should see are reported via
	// ToolResult.IsError; a returned error indicates the tool could not
	// run at all.
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult contains the output of a tool execution. Errors are
// communicated via IsError so the model can react to failures instead of
// the conversation aborting.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// ToolDescriptor is the serializable view of a registered tool, used by
// the HTTP API and for presenting the tool manifest.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// Describe returns the descriptor for a tool.
func Describe(t Tool) ToolDescriptor {
	return ToolDescriptor{
		Name:        t.Name(),
		Description: t.Description(),
		Schema:      t.Schema(),
	}
}
