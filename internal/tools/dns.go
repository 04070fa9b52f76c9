package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

// dnsLookupTimeout bounds a single resolution; a hung resolver should
// surface as a tool result, not stall the whole turn.
const dnsLookupTimeout = 5 * time.Second

type dnsParams struct {
	Hostname string `json:"hostname" jsonschema:"description=Hostname to resolve (e.g. example.com)"`
}

// DNSTool resolves hostnames and reports resolution timing.
type DNSTool struct {
	resolver *net.Resolver
}

// NewDNSTool creates a DNS lookup tool using the host resolver.
func NewDNSTool() *DNSTool {
	return &DNSTool{resolver: net.DefaultResolver}
}

// Name returns the tool name.
func (t *DNSTool) Name() string { return "dns_lookup" }

// Description returns the tool description.
func (t *DNSTool) Description() string {
	return "Resolve a hostname to its IP addresses and measure how long resolution takes."
}

// Schema returns the JSON schema for the tool parameters.
func (t *DNSTool) Schema() json.RawMessage {
	return mustSchema(&dnsParams{})
}

// Execute resolves the requested hostname.
func (t *DNSTool) Execute(ctx context.Context, params json.RawMessage) (*chat.ToolResult, error) {
	var input dnsParams
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	hostname := strings.TrimSpace(input.Hostname)
	if hostname == "" {
		return toolError("hostname is required"), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, dnsLookupTimeout)
	defer cancel()

	start := time.Now()
	addrs, err := t.resolver.LookupHost(lookupCtx, hostname)
	elapsed := time.Since(start)
	if err != nil {
		return toolError(fmt.Sprintf("resolve %s: %v (after %s)", hostname, err, elapsed.Round(time.Millisecond))), nil
	}

	return encodeResult(map[string]any{
		"hostname":    hostname,
		"addresses":   addrs,
		"duration_ms": elapsed.Milliseconds(),
	})
}
