package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Tool parameter limits to prevent resource exhaustion.
const (
	// MaxToolNameLength is the maximum length of a tool name.
	MaxToolNameLength = 256

	// MaxToolParamsSize is the maximum size of tool parameters JSON (10MB).
	MaxToolParamsSize = 10 << 20
)

// Registry manages available tools with thread-safe registration and
// lookup. Tools are registered by name and retrieved for execution during
// conversations. Replacing a registration affects only subsequent lookups;
// in-flight executions of the previous implementation are unaffected.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry by its name.
// If a tool with the same name already exists, it is replaced.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool from the registry by name. Removing an
// unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool by name and a boolean indicating if it was found.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools in unspecified order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Descriptors returns the descriptors of all registered tools in
// unspecified order.
func (r *Registry) Descriptors() []ToolDescriptor {
	tools := r.List()
	descs := make([]ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		descs = append(descs, Describe(t))
	}
	return descs
}

// Execute runs a tool by name with the given JSON parameters.
//
// Registry-level failures (unknown tool, oversized input) and tool-level
// failures are both reported as error-valued results, never raised past
// this boundary. A panicking tool is contained the same way.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) (result *ToolResult, err error) {
	if len(name) > MaxToolNameLength {
		return &ToolResult{
			Content: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength),
			IsError: true,
		}, nil
	}
	if len(params) > MaxToolParamsSize {
		return &ToolResult{
			Content: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize),
			IsError: true,
		}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return &ToolResult{
			Content: "tool not found: " + name,
			IsError: true,
		}, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = &ToolResult{
				Content: fmt.Sprintf("tool %s panicked: %v", name, rec),
				IsError: true,
			}
			err = nil
		}
	}()

	res, execErr := tool.Execute(ctx, params)
	if execErr != nil {
		return &ToolResult{
			Content: fmt.Sprintf("execution failed: %v", execErr),
			IsError: true,
		}, nil
	}
	if res == nil {
		return &ToolResult{
			Content: "tool returned no result: " + name,
			IsError: true,
		}, nil
	}
	return res, nil
}
