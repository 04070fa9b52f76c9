package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

func decodeResult(t *testing.T, res *chat.ToolResult) map[string]any {
	t.Helper()
	if res == nil {
		t.Fatal("nil tool result")
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, res.Content)
	}
	return payload
}

func TestSchemasAreObjects(t *testing.T) {
	all := []chat.Tool{
		NewVPNTool(),
		NewDNSTool(),
		NewNetcheckTool(),
		NewSystemTool(),
		NewAppsTool(),
	}
	for _, tool := range all {
		var schema map[string]any
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			t.Errorf("%s: schema is not JSON: %v", tool.Name(), err)
			continue
		}
		if schema["type"] != "object" {
			t.Errorf("%s: schema type = %v, want object", tool.Name(), schema["type"])
		}
	}
}

func TestIsVPNInterface(t *testing.T) {
	tests := map[string]bool{
		"utun3":  true,
		"tun0":   true,
		"wg0":    true,
		"ppp0":   true,
		"ipsec1": true,
		"UTUN0":  true,
		"en0":    false,
		"eth0":   false,
		"lo0":    false,
		"wlan0":  false,
	}
	for name, want := range tests {
		if got := isVPNInterface(name); got != want {
			t.Errorf("isVPNInterface(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestVPNToolDetectsTunnel(t *testing.T) {
	tool := NewVPNTool()
	tool.interfaces = func() ([]net.Interface, error) {
		return []net.Interface{
			{Name: "lo0", Flags: net.FlagUp},
			{Name: "en0", Flags: net.FlagUp},
			{Name: "utun4", Flags: net.FlagUp},
			{Name: "tun1"}, // down, must not count
		}, nil
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	payload := decodeResult(t, res)
	if payload["vpn_active"] != true {
		t.Error("vpn_active = false, want true with an up utun interface")
	}
	tunnels, _ := payload["tunnel_interfaces"].([]any)
	if len(tunnels) != 1 || tunnels[0] != "utun4" {
		t.Errorf("tunnel_interfaces = %v, want [utun4]", tunnels)
	}
}

func TestVPNToolNoTunnels(t *testing.T) {
	tool := NewVPNTool()
	tool.interfaces = func() ([]net.Interface, error) {
		return []net.Interface{{Name: "en0", Flags: net.FlagUp}}, nil
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if payload := decodeResult(t, res); payload["vpn_active"] != false {
		t.Error("vpn_active = true, want false without tunnel interfaces")
	}
}

func TestVPNToolInterfaceFailure(t *testing.T) {
	tool := NewVPNTool()
	tool.interfaces = func() ([]net.Interface, error) {
		return nil, errors.New("operation not permitted")
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "operation not permitted") {
		t.Errorf("result = %+v, want an error-valued result", res)
	}
}

func TestDNSToolRequiresHostname(t *testing.T) {
	tool := NewDNSTool()
	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError || !strings.Contains(res.Content, "hostname is required") {
		t.Errorf("result = %+v, want a missing-hostname error result", res)
	}
}

func TestNetcheckToolProbesEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tool := NewNetcheckTool(srv.URL)
	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	payload := decodeResult(t, res)
	if payload["online"] != true {
		t.Error("online = false, want true for a reachable endpoint")
	}
	if payload["probed"] != float64(1) || payload["reached"] != float64(1) {
		t.Errorf("probed/reached = %v/%v, want 1/1", payload["probed"], payload["reached"])
	}
}

func TestNetcheckToolUnreachableEndpoint(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	tool := NewNetcheckTool(url)
	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if payload := decodeResult(t, res); payload["online"] != false {
		t.Error("online = true, want false when every probe fails")
	}
}

func TestNetcheckToolRejectsBadScheme(t *testing.T) {
	tool := NewNetcheckTool()
	res, err := tool.Execute(context.Background(), json.RawMessage(`{"url":"ftp://example.com"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result for a non-http url")
	}
}

func TestSystemToolSections(t *testing.T) {
	tool := NewSystemTool()

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"section":"host"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	payload := decodeResult(t, res)
	if _, ok := payload["host"]; !ok {
		t.Error("host section missing")
	}
	if _, ok := payload["memory"]; ok {
		t.Error("memory section present for section=host")
	}

	res, err = tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	payload = decodeResult(t, res)
	for _, section := range []string{"host", "memory"} {
		if _, ok := payload[section]; !ok {
			t.Errorf("%s section missing from default output", section)
		}
	}

	res, err = tool.Execute(context.Background(), json.RawMessage(`{"section":"disk"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result for an unknown section")
	}
}

func TestParsePS(t *testing.T) {
	out := `    1   0.0  0.1 /sbin/launchd
  417  12.5  3.2 /Applications/Safari.app/Contents/MacOS/Safari
  999   bad  1.0 broken
  512   1.5  0.8 ssh agent helper
`
	procs := parsePS(out)
	if len(procs) != 3 {
		t.Fatalf("got %d processes, want 3 (malformed line skipped)", len(procs))
	}
	if procs[0].PID != 1 || procs[0].Command != "/sbin/launchd" {
		t.Errorf("first process = %+v", procs[0])
	}
	if procs[1].CPU != 12.5 || procs[1].Memory != 3.2 {
		t.Errorf("second process = %+v", procs[1])
	}
	if procs[2].Command != "ssh agent helper" {
		t.Errorf("command with spaces = %q", procs[2].Command)
	}
}

func TestAppsToolSortsAndLimits(t *testing.T) {
	tool := NewAppsTool()
	tool.runPS = func(ctx context.Context) ([]byte, error) {
		return []byte(` 1  1.0  9.0 low-cpu-high-mem
 2  8.0  1.0 high-cpu
 3  4.0  4.0 middle
`), nil
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"limit":2}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	payload := decodeResult(t, res)
	procs, _ := payload["processes"].([]any)
	if len(procs) != 2 {
		t.Fatalf("got %d processes, want 2", len(procs))
	}
	first, _ := procs[0].(map[string]any)
	if first["command"] != "high-cpu" {
		t.Errorf("top cpu consumer = %v, want high-cpu", first["command"])
	}

	res, err = tool.Execute(context.Background(), json.RawMessage(`{"limit":1,"sort_by":"memory"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	payload = decodeResult(t, res)
	procs, _ = payload["processes"].([]any)
	first, _ = procs[0].(map[string]any)
	if first["command"] != "low-cpu-high-mem" {
		t.Errorf("top memory consumer = %v, want low-cpu-high-mem", first["command"])
	}
}

func TestAppsToolPSFailure(t *testing.T) {
	tool := NewAppsTool()
	tool.runPS = func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("exec: ps not found")
	}

	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result when ps fails")
	}
}

func TestRegisterDefaults(t *testing.T) {
	reg := chat.NewRegistry()
	names := RegisterDefaults(reg, Options{})
	if len(names) != 5 || reg.Len() != 5 {
		t.Fatalf("registered %v (registry len %d), want all 5 tools", names, reg.Len())
	}

	reg = chat.NewRegistry()
	names = RegisterDefaults(reg, Options{Disabled: []string{"running_apps", "network_check"}})
	if len(names) != 3 || reg.Len() != 3 {
		t.Fatalf("registered %v, want 3 with two disabled", names)
	}
	if _, ok := reg.Get("running_apps"); ok {
		t.Error("running_apps should be disabled")
	}
	if _, ok := reg.Get("vpn_status"); !ok {
		t.Error("vpn_status should remain registered")
	}
}
