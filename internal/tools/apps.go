package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

const (
	defaultProcessLimit = 15
	maxProcessLimit     = 100
)

type appsParams struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of processes to return (default 15)"`
	SortBy string `json:"sort_by,omitempty" jsonschema:"description=Sort order: 'cpu' (default) or 'memory'"`
}

type processInfo struct {
	PID     int     `json:"pid"`
	CPU     float64 `json:"cpu_percent"`
	Memory  float64 `json:"memory_percent"`
	Command string  `json:"command"`
}

// AppsTool lists running processes sorted by resource usage.
type AppsTool struct {
	runPS func(ctx context.Context) ([]byte, error)
}

// NewAppsTool creates a process inspection tool backed by ps.
func NewAppsTool() *AppsTool {
	return &AppsTool{
		runPS: func(ctx context.Context) ([]byte, error) {
			return exec.CommandContext(ctx, "ps", "axo", "pid=,pcpu=,pmem=,comm=").Output()
		},
	}
}

// Name returns the tool name.
func (t *AppsTool) Name() string { return "running_apps" }

// Description returns the tool description.
func (t *AppsTool) Description() string {
	return "List running processes sorted by CPU or memory usage."
}

// Schema returns the JSON schema for the tool parameters.
func (t *AppsTool) Schema() json.RawMessage {
	return mustSchema(&appsParams{})
}

// Execute lists processes via ps and returns the top consumers.
func (t *AppsTool) Execute(ctx context.Context, params json.RawMessage) (*chat.ToolResult, error) {
	var input appsParams
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultProcessLimit
	}
	if limit > maxProcessLimit {
		limit = maxProcessLimit
	}

	sortBy := input.SortBy
	if sortBy == "" {
		sortBy = "cpu"
	}
	if sortBy != "cpu" && sortBy != "memory" {
		return toolError(fmt.Sprintf("unknown sort_by %q: want 'cpu' or 'memory'", sortBy)), nil
	}

	out, err := t.runPS(ctx)
	if err != nil {
		return toolError(fmt.Sprintf("list processes: %v", err)), nil
	}

	procs := parsePS(string(out))
	sort.SliceStable(procs, func(i, j int) bool {
		if sortBy == "memory" {
			return procs[i].Memory > procs[j].Memory
		}
		return procs[i].CPU > procs[j].CPU
	})
	if len(procs) > limit {
		procs = procs[:limit]
	}

	return encodeResult(map[string]any{
		"sorted_by": sortBy,
		"processes": procs,
	})
}

// parsePS parses "ps axo pid=,pcpu=,pmem=,comm=" output. Malformed lines
// are skipped; ps output varies slightly between platforms.
func parsePS(out string) []processInfo {
	var procs []processInfo
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		cpu, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		mem, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		procs = append(procs, processInfo{
			PID:     pid,
			CPU:     cpu,
			Memory:  mem,
			Command: strings.Join(fields[3:], " "),
		})
	}
	return procs
}
