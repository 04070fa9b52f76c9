package tools

import (
	"github.com/haasonsaas/breadcrumbs/internal/chat"
)

// Options configures the built-in tool set.
type Options struct {
	// Disabled lists tool names to leave unregistered.
	Disabled []string

	// NetcheckEndpoints replaces the default connectivity probe URLs.
	NetcheckEndpoints []string
}

// RegisterDefaults registers the built-in diagnostic tools on the given
// registry and returns the names registered.
func RegisterDefaults(reg *chat.Registry, opts Options) []string {
	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = true
	}

	all := []chat.Tool{
		NewVPNTool(),
		NewDNSTool(),
		NewNetcheckTool(opts.NetcheckEndpoints...),
		NewSystemTool(),
		NewAppsTool(),
	}

	var registered []string
	for _, tool := range all {
		if disabled[tool.Name()] {
			continue
		}
		reg.Register(tool)
		registered = append(registered, tool.Name())
	}
	return registered
}
