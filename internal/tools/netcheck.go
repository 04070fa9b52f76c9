package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

// defaultProbeEndpoints are lightweight URLs that answer quickly and
// stay up; generate_204 avoids transferring a body at all.
var defaultProbeEndpoints = []string{
	"https://www.google.com/generate_204",
	"https://one.one.one.one",
}

const netcheckTimeout = 10 * time.Second

type netcheckParams struct {
	URL string `json:"url,omitempty" jsonschema:"description=Optional specific URL to probe instead of the default endpoints"`
}

type probeResult struct {
	URL        string `json:"url"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NetcheckTool probes HTTP endpoints and reports reachability with
// per-endpoint latency.
type NetcheckTool struct {
	client    *http.Client
	endpoints []string
}

// NewNetcheckTool creates a connectivity probe tool. Custom endpoints
// replace the defaults when provided.
func NewNetcheckTool(endpoints ...string) *NetcheckTool {
	if len(endpoints) == 0 {
		endpoints = defaultProbeEndpoints
	}
	return &NetcheckTool{
		client:    &http.Client{Timeout: netcheckTimeout},
		endpoints: endpoints,
	}
}

// Name returns the tool name.
func (t *NetcheckTool) Name() string { return "network_check" }

// Description returns the tool description.
func (t *NetcheckTool) Description() string {
	return "Probe internet connectivity by requesting well-known endpoints and measuring latency."
}

// Schema returns the JSON schema for the tool parameters.
func (t *NetcheckTool) Schema() json.RawMessage {
	return mustSchema(&netcheckParams{})
}

// Execute probes the configured endpoints, or a caller-supplied URL.
func (t *NetcheckTool) Execute(ctx context.Context, params json.RawMessage) (*chat.ToolResult, error) {
	var input netcheckParams
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	endpoints := t.endpoints
	if url := strings.TrimSpace(input.URL); url != "" {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return toolError("url must start with http:// or https://"), nil
		}
		endpoints = []string{url}
	}

	results := make([]probeResult, 0, len(endpoints))
	reachable := 0
	for _, endpoint := range endpoints {
		res := t.probe(ctx, endpoint)
		if res.Reachable {
			reachable++
		}
		results = append(results, res)
	}

	return encodeResult(map[string]any{
		"online":  reachable > 0,
		"reached": reachable,
		"probed":  len(endpoints),
		"results": results,
	})
}

func (t *NetcheckTool) probe(ctx context.Context, url string) probeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return probeResult{URL: url, Error: err.Error()}
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return probeResult{URL: url, Error: err.Error(), LatencyMs: latency.Milliseconds()}
	}
	resp.Body.Close()

	return probeResult{
		URL:        url,
		Reachable:  resp.StatusCode < http.StatusInternalServerError,
		StatusCode: resp.StatusCode,
		LatencyMs:  latency.Milliseconds(),
	}
}
