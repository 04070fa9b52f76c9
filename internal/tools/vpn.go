package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

// vpnInterfacePrefixes are interface name prefixes that indicate a
// tunnel device. utun covers macOS, tun/tap and wg cover Linux, ppp and
// ipsec cover dial-up style VPNs.
var vpnInterfacePrefixes = []string{"utun", "tun", "tap", "wg", "ppp", "ipsec"}

// VPNTool reports whether a VPN tunnel appears active by inspecting
// network interfaces.
type VPNTool struct {
	interfaces func() ([]net.Interface, error)
}

// NewVPNTool creates a VPN status tool.
func NewVPNTool() *VPNTool {
	return &VPNTool{interfaces: net.Interfaces}
}

// Name returns the tool name.
func (t *VPNTool) Name() string { return "vpn_status" }

// Description returns the tool description.
func (t *VPNTool) Description() string {
	return "Check whether a VPN connection is active by inspecting network interfaces for tunnel devices."
}

// Schema returns the JSON schema for the tool parameters.
func (t *VPNTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

// Execute inspects the host's network interfaces.
func (t *VPNTool) Execute(ctx context.Context, params json.RawMessage) (*chat.ToolResult, error) {
	ifaces, err := t.interfaces()
	if err != nil {
		return toolError(fmt.Sprintf("list network interfaces: %v", err)), nil
	}

	var active []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if isVPNInterface(iface.Name) {
			active = append(active, iface.Name)
		}
	}

	return encodeResult(map[string]any{
		"vpn_active":        len(active) > 0,
		"tunnel_interfaces": active,
		"total_interfaces":  len(ifaces),
	})
}

func isVPNInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range vpnInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
