// Package tools provides the built-in diagnostic tools: VPN detection,
// DNS resolution, connectivity probes, host information, and process
// inspection. Each tool implements chat.Tool and reports failures as
// error-valued results rather than errors.
package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

// mustSchema reflects a parameter struct into an inline JSON schema. A
// reflection failure degrades to the permissive object schema instead of
// blocking tool registration.
func mustSchema(v any) json.RawMessage {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	payload, err := json.Marshal(r.Reflect(v))
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func toolError(msg string) *chat.ToolResult {
	return &chat.ToolResult{Content: msg, IsError: true}
}

// encodeResult renders a tool payload as indented JSON, which models
// handle better than ad-hoc prose.
func encodeResult(v any) (*chat.ToolResult, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("encode result: " + err.Error()), nil
	}
	return &chat.ToolResult{Content: string(encoded)}, nil
}
