package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

type systemParams struct {
	Section string `json:"section,omitempty" jsonschema:"description=Section to report: 'host' or 'memory' or 'all' (default)"`
}

// SystemTool reports host and runtime information.
type SystemTool struct {
	started time.Time
}

// NewSystemTool creates a system information tool. Uptime is measured
// from process start.
func NewSystemTool() *SystemTool {
	return &SystemTool{started: time.Now()}
}

// Name returns the tool name.
func (t *SystemTool) Name() string { return "system_info" }

// Description returns the tool description.
func (t *SystemTool) Description() string {
	return "Get host and runtime information: OS, architecture, CPUs, memory usage, and uptime."
}

// Schema returns the JSON schema for the tool parameters.
func (t *SystemTool) Schema() json.RawMessage {
	return mustSchema(&systemParams{})
}

// Execute gathers the requested sections.
func (t *SystemTool) Execute(ctx context.Context, params json.RawMessage) (*chat.ToolResult, error) {
	var input systemParams
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	section := input.Section
	if section == "" {
		section = "all"
	}
	if section != "all" && section != "host" && section != "memory" {
		return toolError(fmt.Sprintf("unknown section %q: want 'host', 'memory', or 'all'", section)), nil
	}

	result := make(map[string]any)

	if section == "all" || section == "host" {
		hostname, _ := os.Hostname()
		result["host"] = map[string]any{
			"hostname":       hostname,
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"cpus":           runtime.NumCPU(),
			"go_version":     runtime.Version(),
			"process_uptime": time.Since(t.started).Round(time.Second).String(),
		}
	}

	if section == "all" || section == "memory" {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		result["memory"] = map[string]any{
			"alloc_mb":      mem.Alloc / (1 << 20),
			"sys_mb":        mem.Sys / (1 << 20),
			"num_gc":        mem.NumGC,
			"goroutines":    runtime.NumGoroutine(),
			"heap_objects":  mem.HeapObjects,
			"gc_pause_ms":   time.Duration(mem.PauseTotalNs).Milliseconds(),
		}
	}

	return encodeResult(result)
}
